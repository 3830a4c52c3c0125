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

// Config carries a BuildContext's behavioral flags and collaborators.
// Built with NewConfig and the With* options below, following the same
// functional-options shape the teacher's rule-engine Config used.
type Config struct {
	Logger    Logger
	Callbacks Callbacks

	// Force re-runs rules even if an external cache store would consider
	// their cache key reusable. The core takes no position on caching
	// itself (spec §1 Non-goals): it carries this flag on the Config but
	// does not read it, and RuleContext does not expose it to rule bodies.
	Force bool
	// StopOnError clears the remaining queue on the first rule failure,
	// letting in-flight rules finish but issuing no new ones.
	StopOnError bool
	// RaiseOnError makes execute_sync return the failure as an error
	// instead of a false boolean.
	RaiseOnError bool
	// Workers sizes the default multi-process executor when the caller
	// does not supply one of their own. Zero means host parallelism.
	Workers int
}

// Option configures a Config. NewConfig applies defaults first, then each
// option in order.
type Option func(*Config) error

func NewConfig(opts ...Option) Config {
	c := &Config{
		Logger: DefaultLogger(),
	}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}

func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

func WithCallbacks(callbacks Callbacks) Option {
	return func(c *Config) error {
		c.Callbacks = callbacks
		return nil
	}
}

func WithForce(force bool) Option {
	return func(c *Config) error {
		c.Force = force
		return nil
	}
}

func WithStopOnError(stop bool) Option {
	return func(c *Config) error {
		c.StopOnError = stop
		return nil
	}
}

func WithRaiseOnError(raise bool) Option {
	return func(c *Config) error {
		c.RaiseOnError = raise
		return nil
	}
}

func WithWorkers(n int) Option {
	return func(c *Config) error {
		c.Workers = n
		return nil
	}
}
