package ui

import (
	"fmt"
	"strings"

	"github.com/terravue/terravue-pixel-poc/internal/driver"
	"github.com/terravue/terravue-pixel-poc/internal/properties"
)

// OpenDataset picks a driver and opens a timeseries dataset, replacing any
// previously opened one.
func OpenDataset(s *session) {
	PrintInfo("Available drivers: ")
	fmt.Println(strings.Join(driver.Names(), ", "))

	name := ReadString(fmt.Sprintf("Enter the driver name (default %s): ", properties.DefaultDriver()))
	if name == "" {
		name = properties.DefaultDriver()
	}

	location := ReadString("Enter the dataset location: ")
	if location == "" {
		location = properties.RootPath()
	}
	if location == "" {
		PrintError("Dataset location cannot be empty.")
		return
	}

	drv, err := driver.New(name, location, nil)
	if err != nil {
		PrintError(fmt.Sprintf("Failed to open dataset: %s", err.Error()))
		return
	}

	if s.drv != nil {
		s.drv.Close()
	}
	s.drv = drv
	s.name = name

	series := drv.Series()[0]
	PrintSuccess(fmt.Sprintf("Opened %s: %d images, %d bands, %dx%d pixels",
		drv.Description(), series.NumImages(), series.NumBands(), series.Width(), series.Height()))
}
