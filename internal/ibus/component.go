package ibus

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Component is the IBus component description read by ibus-daemon.
type Component struct {
	XMLName     xml.Name     `xml:"component"`
	Name        string       `xml:"name"`
	Description string       `xml:"description"`
	Exec        string       `xml:"exec"`
	Version     string       `xml:"version"`
	Author      string       `xml:"author"`
	License     string       `xml:"license"`
	TextDomain  string       `xml:"textdomain"`
	Engines     []EngineDesc `xml:"engines>engine"`
}

// EngineDesc describes one engine in a component.
type EngineDesc struct {
	Name        string `xml:"name"`
	Language    string `xml:"language"`
	License     string `xml:"license"`
	Author      string `xml:"author"`
	Layout      string `xml:"layout"`
	LongName    string `xml:"longname"`
	Description string `xml:"description"`
	Rank        int    `xml:"rank"`
	Symbol      string `xml:"symbol"`
}

// NewComponent describes the engine served by the binary at execPath.
// execPath should include the flags ibus-daemon must pass, such as the
// config file.
func NewComponent(busName, engineName, execPath, version string) Component {
	return Component{
		Name:        busName,
		Description: "Keying long-press keyboard",
		Exec:        execPath + " -ibus",
		Version:     version,
		Author:      "Keying",
		License:     "MIT",
		TextDomain:  "keying",
		Engines: []EngineDesc{{
			Name:        engineName,
			Language:    "en",
			License:     "MIT",
			Author:      "Keying",
			Layout:      "us",
			LongName:    "Keying",
			Description: "Hold a key to type its neighbour or symbol",
			Rank:        50,
			Symbol:      "K",
		}},
	}
}

// WriteTo writes the component XML to w.
func (c Component) WriteTo(w io.Writer) (int64, error) {
	out, err := xml.MarshalIndent(c, "", "    ")
	if err != nil {
		return 0, fmt.Errorf("marshal component: %w", err)
	}
	n, err := io.WriteString(w, xml.Header+string(out)+"\n")
	return int64(n), err
}

// ComponentFile is the file name used inside the component directory.
func ComponentFile(dir, engineName string) string {
	return filepath.Join(dir, engineName+".xml")
}

// Install writes the component file into dir.
func Install(dir string, c Component) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create component dir: %w", err)
	}
	if len(c.Engines) == 0 {
		return "", fmt.Errorf("component %s has no engines", c.Name)
	}
	path := ComponentFile(dir, c.Engines[0].Name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create component file: %w", err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// Uninstall removes the component file for engineName from dir.
func Uninstall(dir, engineName string) error {
	if err := os.Remove(ComponentFile(dir, engineName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove component file: %w", err)
	}
	return nil
}
