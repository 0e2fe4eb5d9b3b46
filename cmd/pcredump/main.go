// Command pcredump compiles a delimited pattern and prints its regex tree
// and the disassembled program. It is a debugging aid for working on the
// parser and the writer.
//
// Usage:
//
//	pcredump [flags] '/pattern/imsx'
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/magnetde/go-pcre/syntax"
)

var (
	showTree    = flag.Bool("tree", true, "print the regex tree")
	showCode    = flag.Bool("code", true, "print the disassembled program")
	noTransform = flag.Bool("no-transform", false, "skip the UTF-8 to UTF-16 rewriting")
	fallback    = flag.Bool("fallback", false, "print the fallback engine translation")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pcredump [flags] '/pattern/imsx'")
		flag.PrintDefaults()
		os.Exit(2)
	}

	pattern := flag.Arg(0)

	tree, err := syntax.Parse(pattern, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if !*noTransform {
		syntax.Transform(tree)
	}

	fmt.Printf("options: %#x\n", tree.Options())
	fmt.Printf("captures: %d\n", tree.CaptureCount())
	if names := tree.CaptureNames(); len(names) > 0 {
		fmt.Printf("names: %v\n", names)
	}

	if *showTree {
		fmt.Println()
		fmt.Print(tree.Dump())
	}

	code := syntax.Write(tree)

	if *showCode {
		fmt.Println()
		fmt.Print(code.Dump())

		fmt.Println()
		fmt.Printf("track count: %d\n", code.TrackCount)
		fmt.Printf("anchors: %#x\n", code.Anchors)
		if code.BMPrefix != nil {
			fmt.Printf("literal prefix: %q\n", code.BMPrefix.Pattern)
		}
		if code.FCPrefix != nil {
			fmt.Printf("first chars: %s\n", code.FCPrefix)
		}
	}

	if *fallback {
		translated, err := syntax.Translate(tree)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Println()
		fmt.Printf("fallback: %s\n", translated)
	}
}
