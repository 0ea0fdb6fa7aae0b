// Copyright 2026 Satkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config controls how a session directory is turned into a recording set.
type Config struct {
	// RequireVideo excludes recordings without a lip video file. Most
	// sessions record no video, so this defaults to false.
	RequireVideo bool `yaml:"require_video"`

	// StrictMetadata aborts the build when a recording has no matching
	// session notes record. When false such recordings are excluded and the
	// build continues.
	StrictMetadata bool `yaml:"strict_metadata"`

	// PreloadAudio loads waveforms at build time. Audio is small and nearly
	// every downstream step needs it, so this defaults to true.
	PreloadAudio bool `yaml:"preload_audio"`

	// PreloadUltrasound decodes volumes at build time. Volumes are large;
	// this defaults to false so that peak memory stays bounded.
	PreloadUltrasound bool `yaml:"preload_ultrasound"`

	// PreloadVideo reads video containers at build time. Defaults to false.
	PreloadVideo bool `yaml:"preload_video"`

	// ExclusionList is the path of an optional tab-delimited file naming
	// recordings to exclude. An absent file means no exclusions.
	ExclusionList string `yaml:"exclusion_list"`
}

// DefaultConfig returns the configuration matching an unattended batch run.
func DefaultConfig() Config {
	return Config{
		PreloadAudio: true,
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
