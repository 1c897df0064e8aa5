// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package toolset

import (
	"context"
	_ "crypto/sha256" // for digest.SHA256
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/opencontainers/go-digest"

	"github.com/lima-vm/fsbox/pkg/fsutil"
	"github.com/lima-vm/fsbox/pkg/mcp/msi"
	"github.com/lima-vm/fsbox/pkg/ptr"
	"github.com/lima-vm/fsbox/pkg/textutil"
)

func (ts *ToolSet) GetFileInfo(_ context.Context,
	_ *mcp.CallToolRequest, args msi.GetFileInfoParams,
) (*mcp.CallToolResult, *msi.GetFileInfoResult, error) {
	p, err := ts.validate(args.Path)
	if err != nil {
		return nil, nil, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return nil, nil, describe(err)
	}
	res := &msi.GetFileInfoResult{
		Path:        p,
		Name:        filepath.Base(p),
		Type:        entryType(st.Mode()),
		Size:        st.Size(),
		HumanSize:   units.HumanSize(float64(st.Size())),
		Mode:        st.Mode().String(),
		Permissions: fmt.Sprintf("%04o", st.Mode().Perm()),
		ModTime:     st.ModTime().UTC().Format(time.RFC3339),
	}
	if o, err := fsutil.Lstat(p); err == nil {
		res.UID = ptr.Of(o.UID)
		res.GID = ptr.Of(o.GID)
		res.Inode = ptr.Of(o.Inode)
		res.Nlink = ptr.Of(o.Nlink)
	} else {
		ts.logger.WithError(err).WithField("path", p).Debug("Ownership is not available")
	}
	if fsType, err := fsutil.FSType(p); err == nil {
		res.Filesystem = fsType
	}
	if st.Mode().IsRegular() {
		if isText, err := textutil.IsText(p); err == nil {
			res.IsText = ptr.Of(isText)
		}
		if ptr.ValueOr(args.Checksum, false) {
			f, err := os.Open(p)
			if err != nil {
				return nil, nil, err
			}
			dgst, err := digest.SHA256.FromReader(f)
			f.Close()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to compute the digest: %w", err)
			}
			res.Digest = dgst.String()
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Path: %s\n", res.Path)
	fmt.Fprintf(&b, "Type: %s\n", res.Type)
	fmt.Fprintf(&b, "Size: %d bytes (%s)\n", res.Size, res.HumanSize)
	fmt.Fprintf(&b, "Mode: %s (%s)\n", res.Mode, res.Permissions)
	fmt.Fprintf(&b, "Modified: %s\n", res.ModTime)
	if res.UID != nil {
		fmt.Fprintf(&b, "Owner: %d:%d\n", *res.UID, *res.GID)
	}
	if res.Digest != "" {
		fmt.Fprintf(&b, "Digest: %s\n", res.Digest)
	}
	return textResult("%s", b.String()), res, nil
}
