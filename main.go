package main

import (
	"fmt"
	"os"

	"yashubustudio/lifetest/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "lifetest: %v\n", err)
		os.Exit(1)
	}
}
