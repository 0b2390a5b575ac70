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

package core

import (
	"sort"

	"github.com/carverauto/adbmosaic/pkg/models"
)

// ToggleSelection adds or removes a device from the selection. Only devices
// connected over TCP/IP can be selected.
func (s *Service) ToggleSelection(id string) models.ActionResult {
	d, ok := s.registry.FindByAnyID(id)
	if !ok {
		return models.Failed("Unknown device " + id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, selected := s.selected[d.Identity]; selected {
		delete(s.selected, d.Identity)

		return models.Succeeded("Deselected " + d.Name)
	}

	if !d.TCPConnected {
		return models.Failed(d.Name + " is not connected over TCP/IP")
	}

	s.selected[d.Identity] = struct{}{}

	return models.Succeeded("Selected " + d.Name)
}

// ClearSelection empties the selection.
func (s *Service) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[string]struct{})
	s.mu.Unlock()
}

// Selected returns the selected identities, sorted.
func (s *Service) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.selected))
	for identity := range s.selected {
		out = append(out, identity)
	}

	sort.Strings(out)

	return out
}

func (s *Service) pruneSelection(tcpConnected []string) {
	keep := make(map[string]struct{}, len(tcpConnected))
	for _, identity := range tcpConnected {
		keep[identity] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for identity := range s.selected {
		if _, ok := keep[identity]; !ok {
			delete(s.selected, identity)
		}
	}
}

func (s *Service) deselect(identity string) {
	s.mu.Lock()
	delete(s.selected, identity)
	s.mu.Unlock()
}
