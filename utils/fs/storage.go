/*
 * Copyright 2026 The RuleGo Authors.
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

// Package fs provides read access to engine script files and configuration files,
// either from the local file system or from an io/fs.FS.
//
// Package fs 提供引擎脚本文件和配置文件的读取，支持本地文件系统或 io/fs.FS。
package fs

import (
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
)

// File defines the interface for file storage.
// Implementations must be safe for concurrent use.
// File 文件存储接口，实现必须并发安全
type File interface {
	// Get retrieves a file by path.
	Get(path string) ([]byte, error)
	// GetFilePaths returns the file paths matching loadFilePattern, skipping
	// files and directories whose name matches one of excludedPatterns.
	GetFilePaths(loadFilePattern string, excludedPatterns ...string) ([]string, error)
	// IsExist checks if a path exists.
	IsExist(path string) bool
	// Name returns the name of the storage.
	Name() string
}

// LocalFileStorage implements File using the local file system.
type LocalFileStorage struct {
	name string
}

func NewLocalFileStorage() *LocalFileStorage {
	return &LocalFileStorage{name: "local"}
}

func (f *LocalFileStorage) Name() string {
	return f.name
}

func (f *LocalFileStorage) Get(path string) ([]byte, error) {
	return os.ReadFile(path)
}

//GetFilePaths 返回匹配的文件路径列表
func (f *LocalFileStorage) GetFilePaths(loadFilePattern string, excludedPatterns ...string) ([]string, error) {
	dir, file := filepath.Split(loadFilePattern)
	if dir == "" {
		dir = "."
	}
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			matched, _ := filepath.Match(file, d.Name())
			if matched && !isMatch(d, excludedPatterns...) {
				paths = append(paths, p)
			}
		} else if p != dir && isMatch(d, excludedPatterns...) {
			return filepath.SkipDir
		}
		return nil
	})
	return paths, err
}

// IsExist checks if a path exists
// IsExist 判断路径是否存在
func (f *LocalFileStorage) IsExist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FSStorage implements File on top of an io/fs.FS such as os.DirFS or an embed.FS.
// Paths are resolved inside the file system only.
type FSStorage struct {
	name string
	fsys iofs.FS
}

func NewFSStorage(name string, fsys iofs.FS) *FSStorage {
	return &FSStorage{name: name, fsys: fsys}
}

func (f *FSStorage) Name() string {
	return f.name
}

func (f *FSStorage) Get(p string) ([]byte, error) {
	return iofs.ReadFile(f.fsys, path.Clean(filepath.ToSlash(p)))
}

func (f *FSStorage) GetFilePaths(loadFilePattern string, excludedPatterns ...string) ([]string, error) {
	dir, file := path.Split(filepath.ToSlash(loadFilePattern))
	dir = path.Clean(dir)
	var paths []string
	err := iofs.WalkDir(f.fsys, dir, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			matched, _ := path.Match(file, d.Name())
			if matched && !isMatch(d, excludedPatterns...) {
				paths = append(paths, p)
			}
		} else if p != dir && isMatch(d, excludedPatterns...) {
			return iofs.SkipDir
		}
		return nil
	})
	return paths, err
}

func (f *FSStorage) IsExist(p string) bool {
	_, err := iofs.Stat(f.fsys, path.Clean(filepath.ToSlash(p)))
	return err == nil
}

func isMatch(d iofs.DirEntry, patterns ...string) bool {
	for _, item := range patterns {
		if matched, _ := filepath.Match(item, d.Name()); matched {
			return true
		}
	}
	return false
}

var DefaultFile File = NewLocalFileStorage()
