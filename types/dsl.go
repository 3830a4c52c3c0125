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

// RuleDSL is the raw, not-yet-constructed form of a rule as a plug-in file
// declares it: the generic attributes common to every rule type, plus the
// type-specific Configuration a RuleBody decodes for itself.
type RuleDSL struct {
	Name      string     `json:"name" mapstructure:"name"`
	Type      string     `json:"type" mapstructure:"type"`
	Srcs      []string   `json:"srcs" mapstructure:"srcs"`
	Deps      []string   `json:"deps" mapstructure:"deps"`
	SrcFilter string     `json:"src_filter,omitempty" mapstructure:"src_filter"`
	When      string     `json:"when,omitempty" mapstructure:"when"`
	Configuration Properties `json:"configuration,omitempty" mapstructure:"configuration"`
}

// ModuleDSL is a plug-in file's full declared content: its path and every
// rule it constructed, in declaration order.
type ModuleDSL struct {
	Path  string    `json:"path" mapstructure:"path"`
	Rules []RuleDSL `json:"rules" mapstructure:"rules"`
}
