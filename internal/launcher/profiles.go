package launcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/packmule-mc/packmule/internal/faults"
)

// ProfilesFile is the launcher's profile registry file name.
const ProfilesFile = "launcher_profiles.json"

const profilesFormatVersion = 3

// Profile is one entry in launcher_profiles.json, keyed by installation id.
// Field names follow the launcher's own casing.
type Profile struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Created       string `json:"created,omitempty"`
	LastUsed      string `json:"lastUsed,omitempty"`
	Icon          string `json:"icon,omitempty"`
	GameDir       string `json:"gameDir"`
	LastVersionID string `json:"lastVersionId"`
	JavaArgs      string `json:"javaArgs,omitempty"`
}

// UpsertProfile writes or replaces the profile keyed by id in the profiles
// file at path, creating the file when missing. Everything else in the
// document, unrelated top-level fields and other profile entries alike, is
// preserved byte for byte.
func UpsertProfile(path, id string, profile Profile) error {
	doc, profiles, err := readDocument(path)
	if err != nil {
		return err
	}

	entry, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	profiles[id] = entry

	return writeDocument(path, doc, profiles)
}

// RemoveProfile deletes the profile keyed by id. A missing file or entry is
// not an error.
func RemoveProfile(path, id string) error {
	doc, profiles, err := readDocument(path)
	if err != nil {
		return err
	}
	if _, ok := profiles[id]; !ok {
		return nil
	}
	delete(profiles, id)
	return writeDocument(path, doc, profiles)
}

// ReadProfile returns the profile keyed by id, reporting whether it exists.
func ReadProfile(path, id string) (Profile, bool, error) {
	_, profiles, err := readDocument(path)
	if err != nil {
		return Profile{}, false, err
	}
	raw, ok := profiles[id]
	if !ok {
		return Profile{}, false, nil
	}

	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return Profile{}, false, faults.New(faults.Parse, fmt.Sprintf("reading profile %s", id), err)
	}
	return profile, true, nil
}

// readDocument splits the profiles file into its top-level fields and the
// profile entries, both kept as raw JSON so untyped content survives a
// round trip.
func readDocument(path string) (map[string]json.RawMessage, map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}

	content, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(content, &doc); err != nil {
			return nil, nil, faults.New(faults.Parse, fmt.Sprintf("reading %s", path), err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, nil, err
	}

	profiles := map[string]json.RawMessage{}
	if raw, ok := doc["profiles"]; ok {
		if err := json.Unmarshal(raw, &profiles); err != nil {
			return nil, nil, faults.New(faults.Parse, fmt.Sprintf("reading %s", path), err)
		}
	}
	return doc, profiles, nil
}

func writeDocument(path string, doc, profiles map[string]json.RawMessage) error {
	rawProfiles, err := json.Marshal(profiles)
	if err != nil {
		return err
	}
	doc["profiles"] = rawProfiles
	if _, ok := doc["version"]; !ok {
		doc["version"] = json.RawMessage(fmt.Sprintf("%d", profilesFormatVersion))
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "launcher_profiles-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
