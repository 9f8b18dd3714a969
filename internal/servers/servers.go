package servers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Server is the subset of a pgadmin server entry this tool reads. Writes
// always go through the raw document so unknown fields survive the copy.
type Server struct {
	Name          string `json:"Name"`
	Group         string `json:"Group,omitempty"`
	Host          string `json:"Host"`
	Port          int    `json:"Port"`
	MaintenanceDB string `json:"MaintenanceDB"`
	Username      string `json:"Username"`
	SSLMode       string `json:"SSLMode,omitempty"`
	PassFile      string `json:"PassFile,omitempty"`
}

type Document struct {
	raw     any
	servers map[string]Server
	viewErr error
}

// Parse decodes a pgadmin servers document. Numbers are kept as json.Number so
// re-encoding does not change their representation.
func Parse(bs []byte) (*Document, error) {
	// the decoder would replace invalid UTF-8 with U+FFFD instead of failing
	if !utf8.Valid(bs) {
		return nil, errors.New("invalid servers json: invalid UTF-8")
	}

	dec := json.NewDecoder(bytes.NewReader(bs))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid servers json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid servers json: trailing data after document")
	}

	d := &Document{raw: raw}

	var typed struct {
		Servers map[string]Server `json:"Servers"`
	}
	// the typed view only feeds logging and verification, the copy never depends on it
	if err := json.Unmarshal(bs, &typed); err != nil {
		d.viewErr = fmt.Errorf("reading server entries: %w", err)
	} else {
		d.servers = typed.Servers
	}

	return d, nil
}

// Marshal encodes the document with a two space indent.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Servers returns the server entries ordered by their key in the document. It
// fails when the entries do not match pgadmin's server format.
func (d *Document) Servers() ([]Server, error) {
	if d.viewErr != nil {
		return nil, d.viewErr
	}

	keys := make([]string, 0, len(d.servers))
	for k := range d.servers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})

	out := make([]Server, 0, len(keys))
	for _, k := range keys {
		out = append(out, d.servers[k])
	}
	return out, nil
}

// Names lists server names for logging. Unreadable entries yield no names.
func (d *Document) Names() []string {
	srvs, _ := d.Servers()
	var names []string
	for _, s := range srvs {
		names = append(names, s.Name)
	}
	return names
}
