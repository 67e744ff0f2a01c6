package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"
)

func main() {
	// .env is optional; VSHRED_* variables may also come from the shell
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "shredrun:", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
