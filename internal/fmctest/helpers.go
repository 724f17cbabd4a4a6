package fmctest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/google/uuid"
)

// Seed stores a record directly, bypassing the API. A missing id is generated.
// The stored copy is returned.
func (s *Server) Seed(resource fmc.Resource, objType fmc.ObjectType, rec *fmc.Record) *fmc.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := rec.Clone()
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	base := "/api/fmc_config/v1"
	if resource == fmc.ResourceAudit {
		base = "/api/fmc_platform/v1"
	}

	out.Links = &fmc.Links{Self: fmt.Sprintf("%s%s/domain/%s/%s/%s/%s", s.URL, base, DomainUUID, resource, objType, out.ID)}
	if out.Metadata == nil {
		out.Metadata = json.RawMessage(`{"readOnly":{"state":false}}`)
	}

	c := s.collection(string(resource) + "/" + string(objType))
	c.order = append(c.order, out.ID)
	c.records[out.ID] = out

	return out.Clone()
}

// SeedAccessRule stores a rule under an access policy.
func (s *Server) SeedAccessRule(policyID string, rec *fmc.Record) *fmc.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := rec.Clone()
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	parent := fmt.Sprintf("%s/api/fmc_config/v1/domain/%s/%s/%s/%s", s.URL, DomainUUID, fmc.ResourcePolicy, fmc.TypeAccessPolicies, policyID)
	out.Links = &fmc.Links{Self: parent + "/accessrules/" + out.ID, Parent: parent}

	c := s.collection(fmt.Sprintf("%s/%s/%s/accessrules", fmc.ResourcePolicy, fmc.TypeAccessPolicies, policyID))
	c.order = append(c.order, out.ID)
	c.records[out.ID] = out

	return out.Clone()
}

// SeedObject seeds a policy object.
func (s *Server) SeedObject(objType fmc.ObjectType, rec *fmc.Record) *fmc.Record {
	return s.Seed(fmc.ResourceObject, objType, rec)
}

// Ref returns the child descriptor of a seeded record.
func Ref(rec *fmc.Record) fmc.ChildRef {
	return fmc.ChildRef{ID: rec.ID, Name: rec.Name, Type: rec.Type}
}

// Object returns a copy of a stored policy object, or nil.
func (s *Server) Object(objType fmc.ObjectType, id string) *fmc.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[string(fmc.ResourceObject)+"/"+string(objType)]
	if c == nil || c.records[id] == nil {
		return nil
	}

	return s.view(c.records[id])
}

// ObjectByName returns a copy of a stored policy object, or nil.
func (s *Server) ObjectByName(objType fmc.ObjectType, name string) *fmc.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[string(fmc.ResourceObject)+"/"+string(objType)]
	if c == nil {
		return nil
	}

	for _, id := range c.order {
		if c.records[id].Name == name {
			return s.view(c.records[id])
		}
	}

	return nil
}

// Names lists stored object names of a type in creation order.
func (s *Server) Names(objType fmc.ObjectType) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[string(fmc.ResourceObject)+"/"+string(objType)]
	if c == nil {
		return nil
	}

	out := make([]string, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id].Name)
	}

	return out
}

// Requests returns "METHOD /path?query" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.requests...)
}

// RequestCount counts requests with the given method whose path contains fragment.
func (s *Server) RequestCount(method, fragment string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, req := range s.requests {
		if strings.HasPrefix(req, method+" ") && strings.Contains(req, fragment) {
			n++
		}
	}

	return n
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

// FailNext makes the next request with method and a path ending in suffix
// answer status with body.
func (s *Server) FailNext(method, suffix string, status int, body string) {
	s.mu.Lock()
	s.faults = append(s.faults, fault{method: method, suffix: suffix, status: status, body: body})
	s.mu.Unlock()
}

// IgnoreRenames makes PUT keep the stored name.
func (s *Server) IgnoreRenames(ignore bool) {
	s.mu.Lock()
	s.ignoreRenames = ignore
	s.mu.Unlock()
}

// ExpireTokens invalidates every access token; refresh tokens stay valid.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	s.tokens = make(map[string]bool)
	s.mu.Unlock()
}
