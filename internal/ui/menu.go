package ui

import (
	"fmt"
	"os"

	"github.com/terravue/terravue-pixel-poc/internal/driver"
)

// session holds the driver opened by the menu; one dataset at a time.
type session struct {
	drv  driver.Driver
	name string
}

type menuOption struct {
	title   string
	handler func(*session)
}

// ShowMenu displays the main menu and handles user input
func ShowMenu() {
	s := &session{}
	menuOptions := []menuOption{
		{"Open a timeseries dataset", OpenDataset},
		{"Fetch a pixel timeseries", FetchPixel},
		{"Run or load the change model for the current pixel", FetchResults},
		{"Show the current pixel data", ShowData},
		{"Export the current pixel to CSV", ExportCSV},
		{"Render plot images for every band", RenderPlots},
		{"Warm the pixel cache for a raster row", WarmCache},
		{"View or change driver configuration", Configure},
		{"Exit the application", func(s *session) {
			if s.drv != nil {
				s.drv.Close()
			}
			fmt.Println("Exiting...")
			os.Exit(0)
		}},
	}

	for {
		fmt.Println("\033[34m===================\033[0m")
		for i, opt := range menuOptions {
			fmt.Printf("\033[34m%d. %s\033[0m\n", i+1, opt.title)
		}
		fmt.Println("\033[34mPlease enter your choice:\033[0m")

		var choice int
		_, err := fmt.Scan(&choice)
		if err != nil {
			fmt.Printf("\n\033[31mInvalid input. Please enter a number.\033[0m\n")
			fmt.Scanln() // Clear the buffer
			continue
		}

		if choice < 1 || choice > len(menuOptions) {
			fmt.Println("\033[31mInvalid choice. Please try again.\033[0m")
			continue
		}

		menuOptions[choice-1].handler(s)
	}
}

func requireDriver(s *session) bool {
	if s.drv == nil {
		PrintError("No dataset is open. Open one first.")
		return false
	}
	return true
}
