package registry

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/WessleyAI/vindecoder/engine/vin"
)

func normalize(s string) string { return vin.Normalize(s) }

func vehicleToMap(v Vehicle) map[string]any {
	return map[string]any{
		"vin":          v.VIN,
		"wmi":          v.WMI,
		"region":       v.Region,
		"country":      v.Country,
		"manufacturer": v.Manufacturer,
		"make":         v.Make,
		"model":        v.Model,
		"model_year":   int64(v.ModelYear),
		"source":       v.Source,
		"updated_at":   v.UpdatedAt,
	}
}

func vehicleFromRecord(rec *neo4j.Record) (Vehicle, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return Vehicle{}, err
	}
	p := node.Props
	v := Vehicle{
		VIN:          strProp(p, "vin"),
		WMI:          strProp(p, "wmi"),
		Region:       strProp(p, "region"),
		Country:      strProp(p, "country"),
		Manufacturer: strProp(p, "manufacturer"),
		Make:         strProp(p, "make"),
		Model:        strProp(p, "model"),
		Source:       strProp(p, "source"),
	}
	if y, ok := p["model_year"].(int64); ok {
		v.ModelYear = int(y)
	}
	if t, ok := p["updated_at"].(time.Time); ok {
		v.UpdatedAt = t.UTC()
	}
	return v, nil
}

func strProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}
