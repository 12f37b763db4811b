// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

type (
	// NodeID indexes a node in a Plan's arena.
	NodeID int

	// NodeKind discriminates the build operations a node can perform.
	NodeKind int

	// EnvVar is one environment assignment scoped to a run command.
	// Order matters: a later assignment of the same key wins.
	EnvVar struct {
		Key   string
		Value string
	}

	// Node is one deduplicated build operation. Every node except a base
	// image node extends a parent; a copy-from-image node additionally
	// reads from a source node. The fingerprint is a content address
	// over the node's operation and its whole ancestry, so two nodes
	// with equal fingerprints produce identical filesystems.
	Node struct {
		ID     NodeID
		Kind   NodeKind
		Parent NodeID // NoNode for KindFrom
		Source NodeID // copy-from-image source, else NoNode

		Image   string   // KindFrom: image reference, or "scratch"
		Command string   // KindRun, KindSetEntrypoint, KindSetCmd
		Workdir string   // KindRun, KindCopyLocal, KindCopyImage dest dir; KindSetWorkdir path
		Env     []EnvVar // KindRun scoped assignments
		SrcPath string   // KindCopyLocal, KindCopyImage
		DstPath string   // KindCopyLocal, KindCopyImage
		Key     string   // KindSetEnv, KindSetLabel
		Value   string   // KindSetEnv, KindSetLabel, KindSetUser, KindAppendPath

		Fingerprint string
	}
)

// NoNode is the null NodeID used where a node has no parent or source.
const NoNode NodeID = -1

const (
	// KindFrom pulls a base image, or starts from the empty filesystem
	// when Image is "scratch".
	KindFrom NodeKind = iota
	// KindRun executes a shell command on the parent filesystem.
	KindRun
	// KindCopyLocal copies a path from the local build context.
	KindCopyLocal
	// KindCopyImage copies a path out of another built image.
	KindCopyImage
	// KindSetWorkdir records the working directory in the image config.
	KindSetWorkdir
	// KindSetEnv records an environment variable in the image config.
	KindSetEnv
	// KindSetEntrypoint records the entrypoint in the image config.
	KindSetEntrypoint
	// KindSetCmd records the default command in the image config.
	KindSetCmd
	// KindSetLabel records a label in the image config.
	KindSetLabel
	// KindSetUser records the default user in the image config.
	KindSetUser
	// KindAppendPath appends a directory to PATH in the image config.
	KindAppendPath
)

func (k NodeKind) String() string {
	switch k {
	case KindFrom:
		return "from"
	case KindRun:
		return "run"
	case KindCopyLocal:
		return "copy"
	case KindCopyImage:
		return "copy-from-image"
	case KindSetWorkdir:
		return "set-workdir"
	case KindSetEnv:
		return "set-env"
	case KindSetEntrypoint:
		return "set-entrypoint"
	case KindSetCmd:
		return "set-cmd"
	case KindSetLabel:
		return "set-label"
	case KindSetUser:
		return "set-user"
	case KindAppendPath:
		return "append-path"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// fingerprint computes the content address of a node given the
// fingerprints of its parent and source. Each field is written with a
// length prefix so no two distinct nodes share an encoding.
func fingerprint(n *Node, parentFP, sourceFP string) string {
	h := sha256.New()
	writeField(h, n.Kind.String())
	writeField(h, parentFP)
	writeField(h, sourceFP)
	writeField(h, n.Image)
	writeField(h, n.Command)
	writeField(h, n.Workdir)
	writeField(h, n.SrcPath)
	writeField(h, n.DstPath)
	writeField(h, n.Key)
	writeField(h, n.Value)
	for _, e := range n.Env {
		writeField(h, e.Key)
		writeField(h, e.Value)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, s string) {
	fmt.Fprintf(w, "%d:%s", len(s), s)
}
