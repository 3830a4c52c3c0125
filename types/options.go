/*
 * Copyright 2026 The Anvil Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

// CallbackOption builds a Callbacks value the same functional-options way
// Config is built, for callers that prefer NewCallbacks(WithOnRuleBegin(...))
// over constructing a Callbacks literal directly.
type CallbackOption func(*Callbacks) error

func NewCallbacks(opts ...CallbackOption) Callbacks {
	c := &Callbacks{}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}

func WithOnRuleBegin(fn func(rulePath string)) CallbackOption {
	return func(c *Callbacks) error {
		c.OnRuleBegin = fn
		return nil
	}
}

func WithOnRuleSucceeded(fn func(rulePath string, outputs []string)) CallbackOption {
	return func(c *Callbacks) error {
		c.OnRuleSucceeded = fn
		return nil
	}
}

func WithOnRuleFailed(fn func(rulePath string, err error)) CallbackOption {
	return func(c *Callbacks) error {
		c.OnRuleFailed = fn
		return nil
	}
}

func WithOnBuildFinished(fn func(success bool)) CallbackOption {
	return func(c *Callbacks) error {
		c.OnBuildFinished = fn
		return nil
	}
}
