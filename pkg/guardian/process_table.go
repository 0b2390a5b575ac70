/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package guardian

//go:generate mockgen -destination=mock_guardian.go -package=guardian github.com/carverauto/adbmosaic/pkg/guardian ProcessTable

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessTable is the slice of the OS process table the guardian needs.
type ProcessTable interface {
	// FindByName returns the pids of processes whose executable name matches name.
	FindByName(ctx context.Context, name string) ([]int32, error)
	Exists(ctx context.Context, pid int32) (bool, error)
	Kill(ctx context.Context, pid int32) error
}

// GopsutilProcessTable reads the live process table.
type GopsutilProcessTable struct{}

var _ ProcessTable = GopsutilProcessTable{}

// FindByName matches case-insensitively and ignores a trailing ".exe".
func (GopsutilProcessTable) FindByName(ctx context.Context, name string) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	want := normalizeName(name)
	pids := make([]int32, 0)

	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			// processes can exit between listing and inspection
			continue
		}

		if normalizeName(n) == want {
			pids = append(pids, p.Pid)
		}
	}

	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	return pids, nil
}

func (GopsutilProcessTable) Exists(ctx context.Context, pid int32) (bool, error) {
	return process.PidExistsWithContext(ctx, pid)
}

func (GopsutilProcessTable) Kill(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil
		}

		return fmt.Errorf("open process %d: %w", pid, err)
	}

	if err := p.KillWithContext(ctx); err != nil {
		return fmt.Errorf("kill process %d: %w", pid, err)
	}

	return nil
}

func normalizeName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".exe")
}
