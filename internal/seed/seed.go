// Package seed loads the initial catalog, troubleshooting guide and demo devices.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"iotguardian/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Data is the content of a seed file.
type Data struct {
	Products []models.Product `yaml:"products"`
	Issues   []models.Issue   `yaml:"issues"`
	Devices  []models.Device  `yaml:"devices"`
}

// Load reads path, or the embedded catalog when path is empty.
func Load(path string) (Data, error) {
	raw := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Data{}, fmt.Errorf("read seed file: %w", err)
		}
		raw = b
	}
	return Parse(raw)
}

// Parse decodes seed YAML and checks ids are present and unique.
func Parse(raw []byte) (Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}

	seen := map[string]bool{}
	for _, p := range d.Products {
		if p.ID == "" || seen["product:"+p.ID] {
			return Data{}, fmt.Errorf("product id %q is empty or duplicated", p.ID)
		}
		seen["product:"+p.ID] = true
		switch p.Category {
		case models.CategorySensor, models.CategoryEquipment, models.CategorySubscription:
		default:
			return Data{}, fmt.Errorf("product %s: unknown category %q", p.ID, p.Category)
		}
	}
	for _, is := range d.Issues {
		if is.ID == "" || seen["issue:"+is.ID] {
			return Data{}, fmt.Errorf("issue id %q is empty or duplicated", is.ID)
		}
		seen["issue:"+is.ID] = true
	}
	for i, dev := range d.Devices {
		if dev.ID == "" || seen["device:"+dev.ID] {
			return Data{}, fmt.Errorf("device id %q is empty or duplicated", dev.ID)
		}
		seen["device:"+dev.ID] = true
		if dev.Name == "" {
			d.Devices[i].Name = dev.ID
		}
		if dev.Status == "" {
			d.Devices[i].Status = models.DeviceStatusOffline
		}
	}
	return d, nil
}
