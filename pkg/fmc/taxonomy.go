package fmc

import (
	"fmt"
	"sort"
	"strings"
)

// Resource is a top-level FMC API category.
type Resource string

// Known resources.
const (
	ResourceObject       Resource = "object"
	ResourceDevices      Resource = "devices"
	ResourceDeviceGroups Resource = "devicegroups"
	ResourcePolicy       Resource = "policy"
	ResourceAssignment   Resource = "assignment"
	ResourceJob          Resource = "job"
	ResourceAudit        Resource = "audit"
	ResourceDeployment   Resource = "deployment"
)

// ObjectType is a concrete kind within a resource, e.g. "hosts" within "object".
type ObjectType string

// Network object types.
const (
	TypeHosts         ObjectType = "hosts"
	TypeNetworks      ObjectType = "networks"
	TypeRanges        ObjectType = "ranges"
	TypeNetworkGroups ObjectType = "networkgroups"
)

// Port object types.
const (
	TypeICMPv4Objects       ObjectType = "icmpv4objects"
	TypeICMPv6Objects       ObjectType = "icmpv6objects"
	TypeProtocolPortObjects ObjectType = "protocolportobjects"
	TypePortObjectGroups    ObjectType = "portobjectgroups"
)

// URL, VLAN and realm user object types.
const (
	TypeURLs            ObjectType = "urls"
	TypeURLGroups       ObjectType = "urlgroups"
	TypeVlanTags        ObjectType = "vlantags"
	TypeVlanGroupTags   ObjectType = "vlangrouptags"
	TypeRealmUsers      ObjectType = "realmusers"
	TypeRealmUserGroups ObjectType = "realmusergroups"
)

// Non-object resource types.
const (
	TypeAccessPolicies     ObjectType = "accesspolicies"
	TypeFilePolicies       ObjectType = "filepolicies"
	TypeIntrusionPolicies  ObjectType = "intrusionpolicies"
	TypeSNMPAlerts         ObjectType = "snmpalerts"
	TypeSyslogAlerts       ObjectType = "syslogalerts"
	TypeDeviceRecords      ObjectType = "devicerecords"
	TypeDeviceGroupRecords ObjectType = "devicegrouprecords"
	TypePolicyAssignments  ObjectType = "policyassignments"
	TypeAuditRecords       ObjectType = "auditrecords"
	TypeTaskStatuses       ObjectType = "taskstatuses"
	TypeDeployableDevices  ObjectType = "deployabledevices"
	TypeDeploymentRequests ObjectType = "deploymentrequests"
)

var (
	networkObjectTypes   = []ObjectType{TypeHosts, TypeNetworks, TypeRanges, TypeNetworkGroups}
	portObjectTypes      = []ObjectType{TypeICMPv4Objects, TypeICMPv6Objects, TypeProtocolPortObjects, TypePortObjectGroups}
	urlObjectTypes       = []ObjectType{TypeURLs, TypeURLGroups}
	vlanObjectTypes      = []ObjectType{TypeVlanTags, TypeVlanGroupTags}
	realmUserObjectTypes = []ObjectType{TypeRealmUsers, TypeRealmUserGroups}

	// Object types that cannot be nested.
	flatObjectTypes = []ObjectType{
		"anyprotocolportobjects", "applicationcategories", "realms", "continents",
		"applicationfilters", "applicationproductivities", "ports", "tunneltags",
		"applicationrisks", "applications", "applicationtags", "applicationtypes",
		"countries", "variablesets", "endpointdevicetypes", "geolocations",
		"isesecuritygrouptags", "networkaddresses", "securitygrouptags",
		"siurlfeeds", "siurllists", "securityzones", "urlcategories",
	}
)

// childObjectTypes maps each group type to the types it may contain.
var childObjectTypes = map[ObjectType][]ObjectType{
	TypeNetworkGroups:    networkObjectTypes,
	TypePortObjectGroups: portObjectTypes,
	TypeURLGroups:        urlObjectTypes,
	TypeVlanGroupTags:    vlanObjectTypes,
	TypeRealmUserGroups:  realmUserObjectTypes,
}

var resourceTree = buildResourceTree()

func buildResourceTree() map[Resource][]ObjectType {
	objects := make([]ObjectType, 0, len(flatObjectTypes)+16)
	objects = append(objects, flatObjectTypes...)
	objects = append(objects, urlObjectTypes...)
	objects = append(objects, vlanObjectTypes...)
	objects = append(objects, portObjectTypes...)
	objects = append(objects, networkObjectTypes...)
	objects = append(objects, realmUserObjectTypes...)

	return map[Resource][]ObjectType{
		ResourceObject:       objects,
		ResourcePolicy:       {TypeAccessPolicies, TypeFilePolicies, TypeIntrusionPolicies, TypeSNMPAlerts, TypeSyslogAlerts},
		ResourceDevices:      {TypeDeviceRecords},
		ResourceDeviceGroups: {TypeDeviceGroupRecords},
		ResourceAssignment:   {TypePolicyAssignments},
		ResourceAudit:        {TypeAuditRecords},
		ResourceJob:          {TypeTaskStatuses},
		ResourceDeployment:   {TypeDeployableDevices, TypeDeploymentRequests},
	}
}

// Resources returns every known resource.
func Resources() []Resource {
	out := make([]Resource, 0, len(resourceTree))
	for r := range resourceTree {
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ObjectTypes returns every policy object type in taxonomy order.
func ObjectTypes() []ObjectType {
	return append([]ObjectType(nil), resourceTree[ResourceObject]...)
}

// TypesOf returns the types that belong to a resource.
func TypesOf(resource Resource) []ObjectType {
	return append([]ObjectType(nil), resourceTree[resource]...)
}

// ValidateResourceType checks that the (resource, type) pair is part of the taxonomy.
func ValidateResourceType(resource Resource, objType ObjectType) error {
	types, ok := resourceTree[resource]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidResourceType, resource)
	}

	for _, t := range types {
		if t == objType {
			return nil
		}
	}

	return fmt.Errorf("%w: %s type %q", ErrInvalidObjectType, resource, objType)
}

// IsObjectType reports whether t is a policy object type.
func IsObjectType(t ObjectType) bool {
	return ValidateResourceType(ResourceObject, t) == nil
}

// IsGroupType reports whether t may contain child objects.
func IsGroupType(t ObjectType) bool {
	_, ok := childObjectTypes[t]

	return ok
}

// ChildTypes returns the types a group type may contain, or nil.
func ChildTypes(group ObjectType) []ObjectType {
	return append([]ObjectType(nil), childObjectTypes[group]...)
}

// GroupTypes returns all group types in a stable order.
func GroupTypes() []ObjectType {
	out := make([]ObjectType, 0, len(childObjectTypes))
	for t := range childObjectTypes {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ParentType returns the group type that may hold objects of type t.
// Each nestable type belongs to exactly one group category.
func ParentType(t ObjectType) (ObjectType, bool) {
	for group, children := range childObjectTypes {
		for _, c := range children {
			if c == t {
				return group, true
			}
		}
	}

	return "", false
}

// TypeForKind maps a record kind such as "Host" or "NetworkGroup" to its
// table type ("hosts", "networkgroups").
func TypeForKind(kind string) ObjectType {
	if kind == "" {
		return ""
	}

	return ObjectType(strings.ToLower(kind) + "s")
}

// MigrationOrder sorts object types so that every child type comes before the
// group types that may contain it. Self-nesting is handled by the table build.
func MigrationOrder(types []ObjectType) []ObjectType {
	leaves := make([]ObjectType, 0, len(types))
	groups := make([]ObjectType, 0, len(types))

	for _, t := range types {
		if IsGroupType(t) {
			groups = append(groups, t)
		} else {
			leaves = append(leaves, t)
		}
	}

	return append(leaves, groups...)
}
