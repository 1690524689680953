// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arpitjain799/envmatrix/internal/resolve"
)

// logDirName is the per-environment directory for captured command
// output.
const logDirName = "log"

// provision prepares the environment directory: the install root, the
// command log directory, and pre-partitioned shard id lists when the
// plan declares them.
func (e *Engine) provision(plan *resolve.Plan) error {
	if err := os.MkdirAll(plan.EnvDir, 0o755); err != nil {
		return &ProvisioningError{Env: plan.Env, Step: "create environment directory", Cause: err}
	}
	if err := os.MkdirAll(filepath.Join(plan.EnvDir, logDirName), 0o755); err != nil {
		return &ProvisioningError{Env: plan.Env, Step: "create log directory", Cause: err}
	}
	if dir := filepath.Dir(plan.ArtifactPath); dir != plan.EnvDir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &ProvisioningError{Env: plan.Env, Step: "create artifact directory", Cause: err}
		}
	}

	if plan.ShardList != "" && plan.ShardCount > 0 {
		if err := partitionShards(plan); err != nil {
			return &ProvisioningError{Env: plan.Env, Step: "partition shard list", Cause: err}
		}
	}
	return nil
}

// partitionShards splits the newline-separated id list round-robin
// into {envdir}/shard-N.txt, one file per shard. The partition is a
// pure function of the list and the count, so every environment of a
// run derives the same assignment.
func partitionShards(plan *resolve.Plan) error {
	f, err := os.Open(plan.ShardList)
	if err != nil {
		return err
	}
	defer f.Close()

	buckets := make([][]string, plan.ShardCount)
	sc := bufio.NewScanner(f)
	i := 0
	for sc.Scan() {
		id := strings.TrimSpace(sc.Text())
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		buckets[i%plan.ShardCount] = append(buckets[i%plan.ShardCount], id)
		i++
	}
	if err := sc.Err(); err != nil {
		return err
	}

	for n, ids := range buckets {
		path := filepath.Join(plan.EnvDir, fmt.Sprintf("shard-%d.txt", n))
		content := ""
		if len(ids) > 0 {
			content = strings.Join(ids, "\n") + "\n"
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
