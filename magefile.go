//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"path"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	BIN_DIR = "bin"

	SERVER_CMD   = "./cmd/wrapitup-server"
	LISTENER_CMD = "./cmd/wrapitup-listener"
)

var Default = Build

func fmtPanic(format string, val ...any) {
	panic(fmt.Sprintf(format, val...))
}

func binPath(name string) string {
	dirPath, err := os.Getwd()
	if err != nil {
		fmtPanic("Unable get pwd of project root. Err: %s", err)
	}
	return path.Join(dirPath, BIN_DIR, name)
}

func buildCmd(pkg string) error {
	out := binPath(path.Base(pkg))
	fmt.Printf("[Go] Build %s -> %s\n", pkg, out)
	return sh.RunV("go", "build", "-o", out, pkg)
}

// Build compiles the server and the headless listener into bin/.
func Build() error {
	if err := os.MkdirAll(BIN_DIR, 0o755); err != nil {
		return err
	}
	for _, pkg := range []string{SERVER_CMD, LISTENER_CMD} {
		if err := buildCmd(pkg); err != nil {
			return err
		}
	}
	return nil
}

func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs every package with the race detector.
func Test() error {
	mg.Deps(Vet)
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Run starts the server; environment and .env configure it.
func Run() error {
	mg.Deps(Build)
	return sh.RunV(binPath(path.Base(SERVER_CMD)))
}

// Listener joins roomPath on a local server, e.g. mage listener /party/host.
func Listener(roomPath string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(path.Base(LISTENER_CMD)), "-path", roomPath)
}
