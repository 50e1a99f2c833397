/*
Gri starts an interactive Grotto play session.

It reads in a dungeon bundle and starts play in the bundle's starting room.
The engine then prints resolved narration to stdout and reads choice
selections from stdin until the content ends or the "quit" command is input.

Usage:

	gri [flags]

The flags are:

	-version
		Give the current version of Grotto and then exit.

	-b/-bundle [FILE]
		Use the provided GDM dungeon or manifest file for the content.
		Defaults to the file "dungeon.gd" in the current working directory.

	-d/-direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading input even if launched in a tty
		with stdin and stdout.

Once a session has started, choices are picked by entering their number. To
exit the session, type "quit".
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ashgrowen/grotto"
	"github.com/ashgrowen/grotto/internal/version"
)

const (

	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitPlayError indicates an unsuccessful program execution due to a
	// problem during play.
	ExitPlayError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue initializing the engine.
	ExitInitError
)

var (
	returnCode  int   = ExitSuccess
	flagVersion *bool = flag.Bool("version", false, "Gives the version info")
	bundleFile  string
	forceDirect bool
)

func init() {
	const (
		defaultBundleFile = "dungeon.gd"
		bundleUsage       = "the GDM dungeon or manifest file that contains the content to play"
		forceDirectUsage  = "force reading directly from stdin instead of going through GNU readline where possible"
	)
	flag.StringVar(&bundleFile, "bundle", defaultBundleFile, bundleUsage)
	flag.StringVar(&bundleFile, "b", defaultBundleFile, bundleUsage+" (shorthand)")
	flag.BoolVar(&forceDirect, "direct", false, forceDirectUsage)
	flag.BoolVar(&forceDirect, "d", false, forceDirectUsage+" (shorthand)")
}

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic("unrecoverable panic occured")
		} else {
			os.Exit(returnCode)
		}
	}()

	flag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	eng, initErr := grotto.New(os.Stdin, os.Stdout, bundleFile, forceDirect)
	if initErr != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", initErr.Error())
		returnCode = ExitInitError
		return
	}
	defer eng.Close()

	err := eng.RunUntilQuit()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitPlayError
		return
	}
}
