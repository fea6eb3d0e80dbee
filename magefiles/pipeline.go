//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var bin = filepath.Join(binDir, binName)

// Convert turns every PDF under documents/raw/ into text.
func Convert() error {
	mg.Deps(Build, Init)
	return sh.RunV(bin, "convert", "--batch")
}

// Scan extracts records from every converted document.
func Scan() error {
	mg.Deps(Build, Init)
	return sh.RunV(bin, "scan", "--batch")
}

// Schedule indexes scan results and writes the XLSX export.
func Schedule() error {
	mg.SerialDeps(Scan)
	if err := sh.RunV(bin, "schedule", "store"); err != nil {
		return err
	}
	return sh.RunV(bin, "schedule", "export", "--format", "xlsx")
}

// Pipeline runs convert, scan and schedule in order.
func Pipeline() {
	mg.SerialDeps(Convert, Schedule)
}
