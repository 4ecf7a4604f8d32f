package session

import (
	"fmt"

	"github.com/wxforge/wxforge/internal/stations"
	"github.com/wxforge/wxforge/internal/stations/davislive"
	"github.com/wxforge/wxforge/internal/stations/ecowitt"
	"github.com/wxforge/wxforge/internal/stations/filewatch"
	"github.com/wxforge/wxforge/internal/stations/genericjson"
	"github.com/wxforge/wxforge/internal/stations/instromet"
	"github.com/wxforge/wxforge/internal/stations/mqttpush"
	"github.com/wxforge/wxforge/internal/stations/tempest"
	"github.com/wxforge/wxforge/internal/types"
)

// factories maps the configured station type to its driver.
var factories = map[string]stations.Factory{
	"davislive":   davislive.NewStation,
	"ecowitt":     ecowitt.NewStation,
	"instromet":   instromet.NewStation,
	"tempest":     tempest.NewStation,
	"genericjson": genericjson.NewStation,
	"mqttpush":    mqttpush.NewStation,
	"filewatch":   filewatch.NewStation,
}

// Register adds a driver factory under a type name. Tests use it to
// install fakes; production drivers are wired statically above.
func Register(stationType string, factory stations.Factory) {
	factories[stationType] = factory
}

func factoryFor(stationType string) (stations.Factory, error) {
	f, ok := factories[stationType]
	if !ok {
		return nil, fmt.Errorf("unknown station type %q: %w", stationType, types.ErrConfiguration)
	}
	return f, nil
}
