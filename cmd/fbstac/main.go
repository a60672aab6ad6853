package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/Ecotrust/TreeForCaSt-s/internal/notification"
)

func printBanner() {
	figure1 := figure.NewFigure("TreeForCaSt", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	fmt.Println()
}

func main() {
	defer func() {
		if r := recover(); r != nil {
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

			stack := debug.Stack()
			errMessage := fmt.Sprintf("TreeForCaSt pipeline panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, stack)
			if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
				fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
			}
			os.Exit(1)
		}
	}()

	// A missing .env is fine; everything can come from the environment.
	if err := godotenv.Load(); err != nil {
		godotenv.Load("../.env")
	}

	printBanner()
	if err := rootCmd.Execute(); err != nil {
		notification.SendDiscordErrorNotification(fmt.Sprintf("TreeForCaSt pipeline\n\n%s", err.Error()))
		os.Exit(1)
	}
}
