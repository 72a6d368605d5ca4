package infer

import (
	"fmt"
	"os"
	"strings"

	"github.com/vito/quartz/pkg/ast"
)

// Colors for terminal output. Callers strip them when not on a terminal.
const (
	red   = "\033[31m"
	blue  = "\033[34m"
	bold  = "\033[1m"
	reset = "\033[0m"
	dim   = "\033[2m"
)

// Sources maps filenames to their contents for snippet rendering. Files
// that are missing are read from disk.
type Sources map[string]string

func (s Sources) lines(filename string) []string {
	src, ok := s[filename]
	if !ok && filename != "" {
		contents, err := os.ReadFile(filename)
		if err != nil {
			return nil
		}
		src = string(contents)
		if s != nil {
			s[filename] = src
		}
	}
	if src == "" {
		return nil
	}
	return strings.Split(src, "\n")
}

type frame struct {
	header string
	loc    *ast.SourceLocation
}

// FormatError renders an inference error with source snippets: the
// innermost cause first, then each instantiation and macro expansion it
// happened in, out to the original call site.
func FormatError(err error, sources Sources) string {
	var frames []frame
	cur := err
unwrap:
	for {
		switch e := cur.(type) {
		case *InstantiationError:
			frames = append(frames, frame{"while instantiating '" + e.Signature + "'", e.Loc})
			cur = e.Err
		case *MacroError:
			frames = append(frames, frame{"in expansion of macro '" + e.Macro + "'", e.Loc})
			if e.Expansion != "" && sources != nil {
				sources["<macro "+e.Macro+">"] = e.Expansion
			}
			cur = e.Err
		default:
			break unwrap
		}
	}

	var result strings.Builder
	var loc *ast.SourceLocation
	if l, ok := cur.(ast.SourceLocatable); ok {
		loc = l.GetSourceLocation()
	}
	fmt.Fprintf(&result, "%s%sError:%s %s\n", bold, red, reset, cur)
	writeSnippet(&result, loc, sources, red)

	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		fmt.Fprintf(&result, "%s%s%s\n", bold, f.header, reset)
		writeSnippet(&result, f.loc, sources, blue)
	}
	return result.String()
}

func writeSnippet(result *strings.Builder, loc *ast.SourceLocation, sources Sources, underlineColor string) {
	if loc == nil {
		return
	}
	fmt.Fprintf(result, "  %s%s--> %s%s\n", dim, blue, loc, reset)

	lines := sources.lines(loc.Filename)
	if loc.Line < 1 || loc.Line > len(lines) {
		return
	}

	// Top separator pipe (aligned with line numbers)
	fmt.Fprintf(result, " %s%s |%s\n", dim, padLeft("", 3), reset)

	startLine := max(1, loc.Line-2)
	endLine := min(len(lines), loc.Line+2)
	for i := startLine; i <= endLine; i++ {
		lineStr := padLeft(fmt.Sprintf("%d", i), 3)
		if i != loc.Line {
			fmt.Fprintf(result, " %s%s | %s%s\n", dim, lineStr, lines[i-1], reset)
			continue
		}
		fmt.Fprintf(result, " %s%s%s%s | %s%s\n", dim, blue, bold, lineStr, reset, lines[i-1])

		// 1 space + 3 for the line number + " | " + column - 1
		padding := strings.Repeat(" ", 1+3+3+max(loc.Column, 1)-1)
		underline := strings.Repeat("^", max(1, loc.Length))
		fmt.Fprintf(result, "%s%s%s%s%s\n", dim, padding, underlineColor, underline, reset)
	}

	fmt.Fprintf(result, " %s%s |%s\n", dim, padLeft("", 3), reset)
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
