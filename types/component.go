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

import (
	"sync"
)

// RuleBody is the per-rule-type behavior a plug-in registers under a tag.
// It mirrors the teacher's Node interface (New/Init/OnMsg/Destroy) shifted
// from message processing onto the build domain: Init decodes the rule's
// generic attribute map, and Begin is invoked by the driver once every
// predecessor has reached a terminal state.
type RuleBody interface {
	// Type returns the rule-type tag this body was registered under.
	Type() string
	// New returns a fresh, independent instance — constructors registered
	// in the registry are prototypes, never shared across rules.
	New() RuleBody
	// Init decodes attrs (the rule's Configuration map) into the body's
	// own fields. Returning an error fails rule construction.
	Init(attrs Properties) error
	// Begin starts the rule's work against ctx and returns immediately;
	// ctx.Succeed/ctx.Fail (directly or via ctx.Chain) complete it.
	Begin(ctx RuleContext)
}

// RuleConstructor builds a fresh RuleBody prototype; it is what the
// registry maps a tag to.
type RuleConstructor func() RuleBody

// SafeRuleSlice is a thread-safe append-only collection, used by the
// plug-in loader as the "per-load collection" spec §4.3 describes: every
// rule a plug-in file constructs registers itself here before the loader
// folds the collection into a Module.
type SafeRuleSlice struct {
	mu    sync.Mutex
	rules []ruleEntry
}

type ruleEntry struct {
	name string
	body RuleBody
}

func (s *SafeRuleSlice) Add(name string, body RuleBody) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, ruleEntry{name: name, body: body})
}

func (s *SafeRuleSlice) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// Each calls fn once per (name, body) pair in registration order.
func (s *SafeRuleSlice) Each(fn func(name string, body RuleBody)) {
	s.mu.Lock()
	entries := make([]ruleEntry, len(s.rules))
	copy(entries, s.rules)
	s.mu.Unlock()
	for _, e := range entries {
		fn(e.name, e.body)
	}
}
