package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/airbusgeo/godal"
	"github.com/charmbracelet/log"
	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/terravue/terravue-pixel-poc/internal/properties"
	"github.com/terravue/terravue-pixel-poc/internal/ui"
)

func printBanner() {
	// Print the banner with go-figure
	figure1 := figure.NewFigure("Terravue", "isometric1", true)
	figure2 := figure.NewFigure("Pixel", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func initCLI() {
	defer func() {
		if r := recover(); r != nil {
			// Get the function, file, and line where panic occurred
			pc, file, line, ok := runtime.Caller(3) // 3 levels up is often the panic source
			var location string
			if ok {
				fn := runtime.FuncForPC(pc)
				location = fmt.Sprintf("%s:%d in %s", file, line, fn.Name())
			} else {
				location = "Unknown location"
			}

			fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
			fmt.Printf("\033[31mLocation: %s\033[0m\n", location)
			fmt.Printf("\033[31mPlease check the input and try again.\033[0m\n")
			fmt.Printf("\033[31mExiting...\033[0m\n")
			log.Debug("panic stack", "stack", string(debug.Stack()))
		}
	}()
	printBanner()
	ui.ShowMenu()
}

func main() {
	// A missing .env is fine; settings fall back to defaults.
	if err := godotenv.Load(".env"); err != nil {
		godotenv.Load("../.env")
	}

	if level, err := log.ParseLevel(properties.LogLevel()); err == nil {
		log.SetLevel(level)
	}

	godal.RegisterAll()
	initCLI()
}
