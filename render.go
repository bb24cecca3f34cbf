package shovel

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/fredrikaverpil/shovel/config"
)

// StatusNode augments a graph Node with, per task, whether its own checkers
// pass and the aggregate of itself and every descendant.
type StatusNode struct {
	Name         string
	Synthetic    bool
	Category     string
	OwnPasses    bool
	Passes       bool
	Dependencies []*StatusNode
}

// Status builds root's dependency tree (deduped, flattened for display) and
// annotates every node with checker results, probed read-only — no Save,
// no Clean, no Force. A node's aggregate Passes is true iff its own check
// passes and every child's aggregate Passes is true; a virtual target's
// aggregate is purely its children's.
func Status(reg *Registry, root string) (*StatusNode, error) {
	raw, err := Tree(reg, root, true, false)
	if err != nil {
		return nil, err
	}

	own := make(map[string]bool)
	agg := make(map[string]bool)
	var compute func(n *Node) bool
	compute = func(n *Node) bool {
		if n.Synthetic {
			allPass := true
			for _, c := range n.Dependencies {
				if !compute(c) {
					allPass = false
				}
			}
			return allPass
		}
		if v, ok := agg[n.Name]; ok {
			return v
		}
		task, _ := reg.Lookup(n.Name)
		ownPass := false
		if !task.IsVirtual() {
			p, _, cerr := checkTask(task, false)
			if cerr == nil {
				ownPass = p
			}
		}
		own[n.Name] = ownPass

		childrenPass := true
		for _, c := range n.Dependencies {
			if !compute(c) {
				childrenPass = false
			}
		}

		result := childrenPass
		if !task.IsVirtual() {
			result = ownPass && childrenPass
		}
		agg[n.Name] = result
		return result
	}
	compute(raw)

	display, err := Tree(reg, root, true, true)
	if err != nil {
		return nil, err
	}

	var toStatus func(n *Node) *StatusNode
	toStatus = func(n *Node) *StatusNode {
		sn := &StatusNode{Name: n.Name, Synthetic: n.Synthetic}
		if !n.Synthetic {
			sn.OwnPasses = own[n.Name]
			sn.Passes = agg[n.Name]
			if task, ok := reg.Lookup(n.Name); ok {
				sn.Category = task.Category
			}
		}
		for _, c := range n.Dependencies {
			sn.Dependencies = append(sn.Dependencies, toStatus(c))
		}
		return sn
	}
	return toStatus(display), nil
}

// RenderStatus writes root's status tree to w, one line per node indented
// by depth, with a colorized ✔/○ glyph. Synthetic null-name wrapper nodes
// are elided; their children render at the same indent as their would-be
// parent.
func RenderStatus(w io.Writer, reg *Registry, root string) error {
	sn, err := Status(reg, root)
	if err != nil {
		return err
	}
	pass := color.New(color.FgGreen)
	pending := color.New(color.FgYellow)
	if !isTerminalWriter(w) {
		pass.DisableColor()
		pending.DisableColor()
	}
	renderStatusNode(w, sn, 0, pass, pending)
	return nil
}

func renderStatusNode(w io.Writer, n *StatusNode, depth int, pass, pending *color.Color) {
	if n.Synthetic {
		for _, c := range n.Dependencies {
			renderStatusNode(w, c, depth, pass, pending)
		}
		return
	}
	glyph := pending.Sprint("○")
	if n.Passes {
		glyph = pass.Sprint("✔")
	}
	fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), glyph, n.Name)
	for _, c := range n.Dependencies {
		renderStatusNode(w, c, depth+1, pass, pending)
	}
}

// RenderHelp writes taskName's help page to w: name, short and long
// description (with {KEY} substitution applied via cfg), a configuration-key
// table, and the task's status tree. The category is shown when set and the
// declared dependency count always, supplementing spec's documented sections.
func RenderHelp(w io.Writer, reg *Registry, cfg *config.Config, taskName string) error {
	task, ok := reg.Lookup(taskName)
	if !ok {
		return fmt.Errorf("%s: %w", taskName, ErrUnknownTask)
	}

	fmt.Fprintf(w, "NAME\n  %s", task.Name)
	if task.ShortDescription != "" {
		fmt.Fprintf(w, " - %s", task.ShortDescription)
	}
	fmt.Fprintln(w)

	if task.Category != "" {
		fmt.Fprintf(w, "\nCATEGORY\n  %s\n", task.Category)
	}

	if task.Description != "" {
		desc := task.Description
		if cfg != nil {
			if expanded, err := cfg.Format(desc, nil); err == nil {
				desc = expanded
			}
		}
		fmt.Fprintf(w, "\nDESCRIPTION\n  %s\n", desc)
	}

	if len(task.ConfigRefs) > 0 {
		fmt.Fprintln(w, "\nCONFIGURATION")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, ref := range task.ConfigRefs {
			value := ref
			if cfg != nil {
				if expanded, err := cfg.Format(ref, nil); err == nil {
					value = expanded
				}
			}
			fmt.Fprintf(tw, "  %s\t= %s\n", ref, value)
		}
		tw.Flush()
	}

	fmt.Fprintf(w, "\nDEPENDENCIES\n  %d resolved\n", len(task.Dependencies))

	fmt.Fprintln(w, "\nSTATUS")
	if err := RenderStatus(w, reg, taskName); err != nil {
		return err
	}
	return nil
}

// isTerminalWriter reports whether w looks like something color escapes
// should be written to. Non-*os.File writers (buffers, string builders used
// by tests) are treated as non-terminals.
func isTerminalWriter(w io.Writer) bool {
	_, ok := w.(interface{ Fd() uintptr })
	return ok
}
