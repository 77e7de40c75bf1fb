package scapegoat

import (
	"fmt"
	"io"
	"strings"
)

// dumpIndentStep is the indentation added per tree level in DumpTo.
const dumpIndentStep = 4

// DumpTo writes a pre-order rendering of the tree to w: one block per
// node with its arena index, key and both children, indented by depth.
// Purely diagnostic; the output format is not stable.
func (t *Tree[T]) DumpTo(w io.Writer) error {
	t.mustBeActive()

	return t.dumpSubtree(w, t.root, 0)
}

func (t *Tree[T]) dumpSubtree(w io.Writer, idx uint32, indent int) error {
	if idx == nilNode {
		_, err := fmt.Fprintf(w, "%*snull\n", indent, "")

		return err
	}

	nd := t.storage()[idx]

	_, err := fmt.Fprintf(w, "%*sNode       #%d\n", indent, "", idx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%*sKey:       %v\n", indent, "", nd.key)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%*sLeft Child:\n", indent, "")
	if err != nil {
		return err
	}

	err = t.dumpSubtree(w, nd.left, indent+dumpIndentStep)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%*sRight Child:\n", indent, "")
	if err != nil {
		return err
	}

	return t.dumpSubtree(w, nd.right, indent+dumpIndentStep)
}

// WriteDot renders the tree in Graphviz DOT format for visual debugging.
// Missing children appear as points so left and right edges stay
// distinguishable.
func (t *Tree[T]) WriteDot(w io.Writer) error {
	t.mustBeActive()

	var b strings.Builder

	b.WriteString("strict digraph scapegoat {\n")
	b.WriteString("\tnode [fontname=Arial,fontsize=12,shape=circle];\n")
	t.dotSubtree(&b, t.root)
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write dot: %w", err)
	}

	return nil
}

func (t *Tree[T]) dotSubtree(b *strings.Builder, idx uint32) {
	if idx == nilNode {
		return
	}

	nd := t.storage()[idx]
	fmt.Fprintf(b, "\t\"%d\" [label=\"%v\"];\n", idx, nd.key)

	if nd.left == nilNode {
		fmt.Fprintf(b, "\t\"%dl\" [label=\"\",shape=point];\n", idx)
		fmt.Fprintf(b, "\t\"%d\" -> \"%dl\";\n", idx, idx)
	} else {
		fmt.Fprintf(b, "\t\"%d\" -> \"%d\";\n", idx, nd.left)
		t.dotSubtree(b, nd.left)
	}

	if nd.right == nilNode {
		fmt.Fprintf(b, "\t\"%dr\" [label=\"\",shape=point];\n", idx)
		fmt.Fprintf(b, "\t\"%d\" -> \"%dr\";\n", idx, idx)
	} else {
		fmt.Fprintf(b, "\t\"%d\" -> \"%d\";\n", idx, nd.right)
		t.dotSubtree(b, nd.right)
	}
}
