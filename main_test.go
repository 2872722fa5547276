package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/bep/helpers/envhelpers"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestScripts(t *testing.T) {
	params := commonTestScriptsParam
	params.Dir = "testscripts"
	testscript.Run(t, params)
}

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"repo-batch-refresh": main,
	})
}

var commonTestScriptsParam = testscript.Params{
	Setup: func(env *testscript.Env) error {
		homeDirectory := filepath.Join(env.WorkDir, "home")
		if err := os.MkdirAll(homeDirectory, 0o755); err != nil {
			return err
		}
		envhelpers.SetEnvVars(&env.Vars,
			"HOME", homeDirectory,
			"XDG_CONFIG_HOME", filepath.Join(homeDirectory, ".config"),
			"GIT_CEILING_DIRECTORIES", env.WorkDir,
			"GIT_CONFIG_NOSYSTEM", "1",
			"GIT_AUTHOR_NAME", "Refresh Tester",
			"GIT_AUTHOR_EMAIL", "tester@example.com",
			"GIT_COMMITTER_NAME", "Refresh Tester",
			"GIT_COMMITTER_EMAIL", "tester@example.com",
			"NO_COLOR", "1",
		)
		return nil
	},
	Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
		// gitdirs lists, in order, every directory below the argument that holds a .git directory.
		"gitdirs": func(ts *testscript.TestScript, neg bool, args []string) {
			if len(args) != 1 {
				ts.Fatalf("usage: gitdirs DIR")
			}
			rootDirectory := ts.MkAbs(args[0])
			var repositories []string
			err := filepath.WalkDir(rootDirectory, func(path string, entry fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if entry.IsDir() && entry.Name() == ".git" {
					relativePath, relError := filepath.Rel(rootDirectory, filepath.Dir(path))
					if relError != nil {
						return relError
					}
					repositories = append(repositories, filepath.ToSlash(relativePath))
					return filepath.SkipDir
				}
				return nil
			})
			if err != nil {
				ts.Fatalf("%v", err)
			}
			sort.Strings(repositories)
			for _, repository := range repositories {
				fmt.Fprintln(ts.Stdout(), repository)
			}
		},
	},
}
