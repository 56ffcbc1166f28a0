package propstore

import "reflect"

// tableKey is the TypedContainerMap key an EntityTable is installed
// under inside a host's plugin container. Using EntityTable's own type
// as the key means a host can hold several unrelated plugin types in
// one TypedContainerMap (exactly the container's purpose: one typed
// instance per plugin type) without this package needing to know
// anything about the host's other plugins.
var tableKey = reflect.TypeOf((*EntityTable)(nil))

// InstallEntityTable installs table into a host's plugin container.
// It is the host's job to own that container; this package only
// defines how its own plugin type is installed into and retrieved
// from one.
func InstallEntityTable(host *TypedContainerMap, table *EntityTable) {
	Insert[*EntityTable](host, tableKey, table)
}

// GetEntityTable retrieves the EntityTable previously installed into
// host via InstallEntityTable.
func GetEntityTable(host *TypedContainerMap) (*EntityTable, bool) {
	return Get[*EntityTable](host, tableKey)
}
