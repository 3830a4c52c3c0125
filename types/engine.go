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

import "path/filepath"

// Environment anchors all path resolution for a build: the root directory
// everything else (module directories, build-out, build-gen) is relative
// to, plus an opaque bag of driver options (spec §4.6's "environment ...
// opaque options").
type Environment struct {
	Root    string
	Options Properties
}

func NewEnvironment(root string) *Environment {
	return &Environment{Root: root, Options: NewProperties()}
}

const (
	outDirName = "build-out"
	genDirName = "build-gen"
	cacheDirName = "build-cache"
)

// OutDir and GenDir are the environment's reserved output subtrees.
func (e *Environment) OutDir() string   { return filepath.Join(e.Root, outDirName) }
func (e *Environment) GenDir() string   { return filepath.Join(e.Root, genDirName) }
func (e *Environment) CacheDir() string { return filepath.Join(e.Root, "."+cacheDirName) }

// OutPath and GenPath are pure functions of (environment, rule directory,
// name, suffix): spec §4.7 requires _get_out_path/_get_gen_path to depend
// on nothing but their arguments, so two calls with identical inputs must
// return identical paths regardless of build state.
//
// ruleDir is the rule's parent module directory, relative to Root.
func (e *Environment) OutPath(ruleDir, name, suffix string) string {
	return filepath.Join(e.OutDir(), ruleDir, name+suffix)
}

func (e *Environment) GenPath(ruleDir, name, suffix string) string {
	return filepath.Join(e.GenDir(), ruleDir, name+suffix)
}
