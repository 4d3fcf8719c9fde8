package maintain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/projecteru2/fleetd/catalog"
	"github.com/projecteru2/fleetd/lock"
	"github.com/projecteru2/fleetd/lock/flock"
	"github.com/projecteru2/fleetd/types"
	"github.com/projecteru2/fleetd/utils"
)

var (
	// ErrNotReadable is returned when a config file exists but cannot be read.
	ErrNotReadable = errors.New("config file not readable")
	// ErrNotWritable is returned when a config file exists but cannot be written.
	ErrNotWritable = errors.New("config file not writable")
)

// ContainerConfigs probes every manifest config file scoped to one
// container. The id is validated against the catalog first.
func (m *Maintainer) ContainerConfigs(ctx context.Context, id int) ([]types.ConfigFile, error) {
	if err := m.lookupContainer(id); err != nil {
		return nil, err
	}
	configs := []types.ConfigFile{}
	for _, spec := range m.manifest.ConfigsFor(id) {
		configs = append(configs, m.probeConfig(ctx, spec))
	}
	return configs, nil
}

// ReadContainerConfig returns the content of one config file inside a
// container. Readability is checked before the read so the error taxonomy
// distinguishes missing permission from a failed transfer.
func (m *Maintainer) ReadContainerConfig(ctx context.Context, id int, path string) (string, error) {
	if err := m.lookupContainer(id); err != nil {
		return "", err
	}
	cid := &id

	if _, err := m.run(ctx, m.wrap(cid, nil, "test", "-r", path)...); err != nil {
		return "", fmt.Errorf("%s: %w", path, ErrNotReadable)
	}
	res, err := m.run(ctx, m.wrap(cid, nil, "cat", path)...)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return res.Stdout, nil
}

// WriteContainerConfig replaces one config file inside a container
// all-or-nothing: the content is staged to a temp file and renamed over the
// target, and a .bak of the prior content is kept. A failed write leaves
// the original untouched. Writers to the same file are serialised through
// a per-file flock.
func (m *Maintainer) WriteContainerConfig(ctx context.Context, id int, path, content string) error {
	if err := m.lookupContainer(id); err != nil {
		return err
	}
	cid := &id

	if err := utils.EnsureDirs(m.conf.LockDir()); err != nil {
		return err
	}
	return lock.WithLock(ctx, flock.New(m.writeLockPath(id, path)), func() error {
		return m.writeConfig(ctx, cid, path, content)
	})
}

func (m *Maintainer) writeConfig(ctx context.Context, cid *int, path, content string) error {
	// An existing target must be writable; a brand-new file only needs a
	// writable parent, which the staged write below will surface itself.
	if _, err := m.run(ctx, m.wrap(cid, nil, "test", "-f", path)...); err == nil {
		if _, err := m.run(ctx, m.wrap(cid, nil, "test", "-w", path)...); err != nil {
			return fmt.Errorf("%s: %w", path, ErrNotWritable)
		}
		if _, err := m.run(ctx, m.wrap(cid, nil, "cp", "-p", path, path+".bak")...); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
	}

	tmp := path + ".tmp"
	cctx, cancel := context.WithTimeout(ctx, m.conf.CallTimeout())
	defer cancel()
	if _, err := m.gw.RunInput(cctx, content, m.wrap(cid, nil, "tee", tmp)...); err != nil {
		_, _ = m.run(ctx, m.wrap(cid, nil, "rm", "-f", tmp)...)
		return fmt.Errorf("stage %s: %w", path, err)
	}
	if _, err := m.run(ctx, m.wrap(cid, nil, "mv", tmp, path)...); err != nil {
		_, _ = m.run(ctx, m.wrap(cid, nil, "rm", "-f", tmp)...)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func (m *Maintainer) lookupContainer(id int) error {
	entry, err := m.cat.Lookup(id)
	if err != nil {
		return err
	}
	if entry.Kind != types.KindContainer {
		return fmt.Errorf("id %d is not a container: %w", id, catalog.ErrNotFound)
	}
	return nil
}

// writeLockPath derives a stable lock file name for one target file.
func (m *Maintainer) writeLockPath(id int, path string) string {
	sum := sha256.Sum256([]byte(strconv.Itoa(id) + ":" + path))
	return filepath.Join(m.conf.LockDir(), "cfg-"+hex.EncodeToString(sum[:8])+".lock")
}
