package fmc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Links holds the hypermedia links FMC attaches to every record.
type Links struct {
	Self   string `json:"self,omitempty"   yaml:"self,omitempty"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// ChildRef is a nested reference inside a group's "objects" list.
type ChildRef struct {
	ID          string `json:"id"                    yaml:"id"`
	Name        string `json:"name"                  yaml:"name"`
	Type        string `json:"type"                  yaml:"type"`
	Overridable *bool  `json:"overridable,omitempty" yaml:"overridable,omitempty"`
}

// ObjectType returns the table type the reference belongs to.
func (c ChildRef) ObjectType() ObjectType {
	return TypeForKind(c.Type)
}

// Record is a full FMC record. Keys not modelled here are kept in Extra so a
// fetched record can be written back without losing server-specific fields.
type Record struct {
	ID          string          `json:"id,omitempty"          yaml:"id,omitempty"`
	Name        string          `json:"name,omitempty"        yaml:"name,omitempty"`
	Type        string          `json:"type,omitempty"        yaml:"type,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Value       string          `json:"value,omitempty"       yaml:"value,omitempty"`
	Overridable *bool           `json:"overridable,omitempty" yaml:"overridable,omitempty"`
	Objects     []ChildRef      `json:"objects,omitempty"     yaml:"objects,omitempty"`
	Links       *Links          `json:"links,omitempty"       yaml:"links,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"    yaml:"-"`

	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

// recordFields mirrors Record without methods so encoding/json does not recurse.
type recordFields struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	Value       string          `json:"value,omitempty"`
	Overridable *bool           `json:"overridable,omitempty"`
	Objects     []ChildRef      `json:"objects,omitempty"`
	Links       *Links          `json:"links,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

var modelledKeys = map[string]struct{}{
	"id": {}, "name": {}, "type": {}, "description": {}, "value": {},
	"overridable": {}, "objects": {}, "links": {}, "metadata": {},
}

// UnmarshalJSON decodes the modelled fields and keeps the rest in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields recordFields

	err := json.Unmarshal(data, &fields)
	if err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}

	var raw map[string]json.RawMessage

	err = json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("decoding record keys: %w", err)
	}

	*r = Record{
		ID:          fields.ID,
		Name:        fields.Name,
		Type:        fields.Type,
		Description: fields.Description,
		Value:       fields.Value,
		Overridable: fields.Overridable,
		Objects:     fields.Objects,
		Links:       fields.Links,
		Metadata:    fields.Metadata,
	}

	for key, value := range raw {
		if _, ok := modelledKeys[key]; ok {
			continue
		}

		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}

		r.Extra[key] = value
	}

	return nil
}

// MarshalJSON encodes modelled fields followed by Extra.
func (r Record) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(recordFields{
		ID:          r.ID,
		Name:        r.Name,
		Type:        r.Type,
		Description: r.Description,
		Value:       r.Value,
		Overridable: r.Overridable,
		Objects:     r.Objects,
		Links:       r.Links,
		Metadata:    r.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	if len(r.Extra) == 0 {
		return base, nil
	}

	extra := make(map[string]json.RawMessage, len(r.Extra))

	for key, value := range r.Extra {
		if _, ok := modelledKeys[key]; ok {
			continue
		}

		extra[key] = value
	}

	if len(extra) == 0 {
		return base, nil
	}

	tail, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("encoding record extras: %w", err)
	}

	if bytes.Equal(base, []byte("{}")) {
		return tail, nil
	}

	out := make([]byte, 0, len(base)+len(tail))
	out = append(out, base[:len(base)-1]...)
	out = append(out, ',')
	out = append(out, tail[1:]...)

	return out, nil
}

// recordYAML is the YAML view of a record. Extra keys are inlined after the
// modelled ones.
type recordYAML struct {
	ID          string                 `yaml:"id,omitempty"`
	Name        string                 `yaml:"name,omitempty"`
	Type        string                 `yaml:"type,omitempty"`
	Description string                 `yaml:"description,omitempty"`
	Value       string                 `yaml:"value,omitempty"`
	Overridable *bool                  `yaml:"overridable,omitempty"`
	Objects     []ChildRef             `yaml:"objects,omitempty"`
	Links       *Links                 `yaml:"links,omitempty"`
	Metadata    interface{}            `yaml:"metadata,omitempty"`
	Extra       map[string]interface{} `yaml:",inline"`
}

// MarshalYAML renders the same keys MarshalJSON writes.
func (r Record) MarshalYAML() (interface{}, error) {
	out := recordYAML{
		ID:          r.ID,
		Name:        r.Name,
		Type:        r.Type,
		Description: r.Description,
		Value:       r.Value,
		Overridable: r.Overridable,
		Objects:     r.Objects,
		Links:       r.Links,
	}

	if len(r.Metadata) > 0 {
		err := json.Unmarshal(r.Metadata, &out.Metadata)
		if err != nil {
			return nil, fmt.Errorf("decoding record metadata: %w", err)
		}
	}

	for key, raw := range r.Extra {
		if _, ok := modelledKeys[key]; ok {
			continue
		}

		var value interface{}

		err := json.Unmarshal(raw, &value)
		if err != nil {
			return nil, fmt.Errorf("decoding record key %s: %w", key, err)
		}

		if out.Extra == nil {
			out.Extra = make(map[string]interface{}, len(r.Extra))
		}

		out.Extra[key] = value
	}

	return out, nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	out := *r

	if r.Overridable != nil {
		v := *r.Overridable
		out.Overridable = &v
	}

	if r.Objects != nil {
		out.Objects = make([]ChildRef, len(r.Objects))
		copy(out.Objects, r.Objects)
	}

	if r.Links != nil {
		links := *r.Links
		out.Links = &links
	}

	if r.Metadata != nil {
		out.Metadata = append(json.RawMessage(nil), r.Metadata...)
	}

	if r.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}

	return &out
}

// WritePayload returns a copy suitable for PUT: links and metadata removed.
func (r *Record) WritePayload() *Record {
	out := r.Clone()
	out.Links = nil
	out.Metadata = nil

	return out
}

// CreatePayload returns a copy suitable for POST: id, links and metadata removed.
func (r *Record) CreatePayload() *Record {
	out := r.WritePayload()
	out.ID = ""

	return out
}

// SelfURL returns the record's self link or an empty string.
func (r *Record) SelfURL() string {
	if r == nil || r.Links == nil {
		return ""
	}

	return r.Links.Self
}

// ChildRef builds the minimal descriptor used to reference this record from a group.
func (r *Record) ChildRef() ChildRef {
	ref := ChildRef{ID: r.ID, Name: r.Name, Type: r.Type}

	if r.Overridable != nil {
		v := *r.Overridable
		ref.Overridable = &v
	}

	return ref
}

// Paging is the paging block of a listing response.
type Paging struct {
	Offset int      `json:"offset" yaml:"offset"`
	Limit  int      `json:"limit"  yaml:"limit"`
	Count  int      `json:"count"  yaml:"count"`
	Pages  int      `json:"pages"  yaml:"pages"`
	Next   []string `json:"next,omitempty"     yaml:"next,omitempty"`
	Prev   []string `json:"previous,omitempty" yaml:"previous,omitempty"`
}

// ListResponse is one page of a listing.
type ListResponse struct {
	Items  []*Record `json:"items"  yaml:"items"`
	Paging Paging    `json:"paging" yaml:"paging"`
}

// CacheEntry is one name→identifier mapping of a table.
type CacheEntry struct {
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id"   yaml:"id"`
}

// ServerVersion is the subset of /info/serverversion the client uses.
type ServerVersion struct {
	ServerVersion string `json:"serverVersion" yaml:"serverVersion"`
	GeoVersion    string `json:"geoVersion"    yaml:"geoVersion"`
	VDBVersion    string `json:"vdbVersion"    yaml:"vdbVersion"`
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}
