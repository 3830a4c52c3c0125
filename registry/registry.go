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

// Package registry implements the rule-type registry (spec §4.2): a
// process-wide map from a string rule-type tag to its RuleConstructor,
// populated either by an explicit Register call or by filesystem
// discovery of compiled plug-in shared objects.
package registry

import (
	"fmt"
	"sync"

	"github.com/anvil-build/anvil/types"
)

// Registry is the default, process-wide rule-type registry, mirroring
// the teacher's package-level Registry instance.
var Registry = New()

// RuleRegistry maps rule-type tags to constructors. The zero value is not
// usable; use New.
type RuleRegistry struct {
	mu   sync.RWMutex
	ctor map[string]types.RuleConstructor
}

func New() *RuleRegistry {
	return &RuleRegistry{ctor: make(map[string]types.RuleConstructor)}
}

// Register adds ctor under tag. Fails with DuplicateTag if the tag is
// already registered.
func (r *RuleRegistry) Register(tag string, ctor types.RuleConstructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctor[tag]; exists {
		return types.NewError(types.ErrDuplicateTag, fmt.Sprintf("rule type %q is already registered", tag))
	}
	r.ctor[tag] = ctor
	return nil
}

// Unregister removes tag, if present.
func (r *RuleRegistry) Unregister(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ctor, tag)
}

// NewRuleBody constructs a fresh RuleBody instance for tag. Unknown tag is an
// UnknownSymbol error — the kind spec §4.3 specifies for a plug-in
// referencing an undefined identifier, since "unknown rule type" and
// "unknown plug-in symbol" are the same failure from the loader's view.
func (r *RuleRegistry) NewRuleBody(tag string) (types.RuleBody, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctor[tag]
	if !ok {
		return nil, types.NewError(types.ErrUnknownSymbol, "no rule type registered under tag "+tag)
	}
	return ctor(), nil
}

// Tags returns every registered tag. Order is unspecified.
func (r *RuleRegistry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ctor))
	for t := range r.ctor {
		out = append(out, t)
	}
	return out
}
