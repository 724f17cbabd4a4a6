package fmc_test

import (
	"encoding/json"
	"testing"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const hostJSON = `{
  "id": "005056BB-0B24-0ed3-0000-012884902138",
  "name": "web",
  "type": "Host",
  "value": "10.0.0.1",
  "overridable": false,
  "dnsResolution": "IPV4_ONLY",
  "links": {"self": "https://fmc/api/fmc_config/v1/domain/d/object/hosts/005056BB-0B24-0ed3-0000-012884902138"},
  "metadata": {"readOnly": {"state": false}, "timestamp": 1522320302385}
}`

func TestRecord_KeepsUnmodelledFields(t *testing.T) {
	t.Parallel()

	var rec fmc.Record
	require.NoError(t, json.Unmarshal([]byte(hostJSON), &rec))

	assert.Equal(t, "web", rec.Name)
	assert.Equal(t, "10.0.0.1", rec.Value)
	require.NotNil(t, rec.Overridable)
	assert.False(t, *rec.Overridable)
	assert.Contains(t, rec.SelfURL(), "/object/hosts/")
	assert.Len(t, rec.Extra, 1)
	assert.JSONEq(t, `"IPV4_ONLY"`, string(rec.Extra["dnsResolution"]))

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, hostJSON, string(out))
}

func TestRecord_YAMLKeepsUnmodelledFields(t *testing.T) {
	t.Parallel()

	var rec fmc.Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "1", "name": "g", "type": "NetworkGroup",
		"objects": [{"id": "2", "name": "lan", "type": "Network"}],
		"literals": [{"type": "Host", "value": "10.1.1.1"}],
		"metadata": {"readOnly": {"state": false}}
	}`), &rec))

	out, err := yaml.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))

	assert.Equal(t, "g", decoded["name"])
	assert.Equal(t, "NetworkGroup", decoded["type"])
	assert.Equal(t, []interface{}{map[string]interface{}{"type": "Host", "value": "10.1.1.1"}}, decoded["literals"])
	assert.Equal(t, map[string]interface{}{"readOnly": map[string]interface{}{"state": false}}, decoded["metadata"])
	require.Len(t, decoded["objects"], 1)

	pointer, err := yaml.Marshal(&rec)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(pointer))
	assert.Regexp(t, `(?s)^id: "1"\nname: g\n`, string(out))
}

func TestRecord_Payloads(t *testing.T) {
	t.Parallel()

	var rec fmc.Record
	require.NoError(t, json.Unmarshal([]byte(hostJSON), &rec))

	write, err := json.Marshal(rec.WritePayload())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "005056BB-0B24-0ed3-0000-012884902138",
		"name": "web", "type": "Host", "value": "10.0.0.1",
		"overridable": false, "dnsResolution": "IPV4_ONLY"
	}`, string(write))

	create, err := json.Marshal(rec.CreatePayload())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "web", "type": "Host", "value": "10.0.0.1",
		"overridable": false, "dnsResolution": "IPV4_ONLY"
	}`, string(create))

	assert.NotNil(t, rec.Links, "payloads do not modify the record")
	assert.NotEmpty(t, rec.ID)
}

func TestRecord_Clone(t *testing.T) {
	t.Parallel()

	rec := &fmc.Record{
		Name:        "g",
		Overridable: fmc.Bool(true),
		Objects:     []fmc.ChildRef{{ID: "1", Name: "a", Type: "Host"}},
		Extra:       map[string]json.RawMessage{"k": json.RawMessage(`1`)},
	}

	cp := rec.Clone()
	cp.Objects[0].Name = "changed"
	*cp.Overridable = false
	cp.Extra["k"] = json.RawMessage(`2`)

	assert.Equal(t, "a", rec.Objects[0].Name)
	assert.True(t, *rec.Overridable)
	assert.Equal(t, "1", string(rec.Extra["k"]))

	var nilRecord *fmc.Record
	assert.Nil(t, nilRecord.Clone())
	assert.Empty(t, nilRecord.SelfURL())
}

func TestRecord_ExtraCannotShadowModelledKeys(t *testing.T) {
	t.Parallel()

	rec := fmc.Record{Name: "web", Extra: map[string]json.RawMessage{"name": json.RawMessage(`"other"`)}}

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"web"}`, string(out))

	onlyExtra := fmc.Record{Extra: map[string]json.RawMessage{"k": json.RawMessage(`true`)}}

	out, err = json.Marshal(onlyExtra)
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":true}`, string(out))
}

func TestRecord_ChildRef(t *testing.T) {
	t.Parallel()

	rec := &fmc.Record{ID: "1", Name: "lan", Type: "Network", Value: "10.0.0.0/8", Overridable: fmc.Bool(false)}
	ref := rec.ChildRef()

	assert.Equal(t, fmc.TypeNetworks, ref.ObjectType())

	out, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","name":"lan","type":"Network","overridable":false}`, string(out))
}

func TestListResponse(t *testing.T) {
	t.Parallel()

	body := `{
		"items": [{"id": "1", "name": "a", "type": "Host"}],
		"paging": {"offset": 0, "limit": 1, "count": 2, "pages": 2,
		           "next": ["https://fmc/api/fmc_config/v1/domain/d/object/hosts?offset=1&limit=1"]}
	}`

	var page fmc.ListResponse
	require.NoError(t, json.Unmarshal([]byte(body), &page))

	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Paging.Count)
	assert.Len(t, page.Paging.Next, 1)
}

func TestObjectState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unbound", fmc.StateUnbound.String())
	assert.Equal(t, "bound", fmc.StateBound.String())
	assert.Equal(t, "deleted", fmc.StateDeleted.String())
	assert.Equal(t, "unknown", fmc.ObjectState(9).String())
}
