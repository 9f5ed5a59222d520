package model

import "strings"

// PlatformOwner is the owner bucket for schema elements with no
// recognizable customization prefix.
const PlatformOwner = "Platform"

// OwnerPrefix extracts the publisher prefix from a schema name:
// everything before the first underscore, lower-cased. Names without an
// underscore belong to the platform owner.
func OwnerPrefix(schemaName string) string {
	idx := strings.Index(schemaName, "_")
	if idx <= 0 {
		return PlatformOwner
	}
	return strings.ToLower(schemaName[:idx])
}
