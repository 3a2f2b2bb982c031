package main

import (
	"log"
	"os"
	stdos "os"
)

func helper() {
	os.Exit(3)
}

func main() {
	helper()
	os.Exit(1)        // want `avoid calling os.Exit in main.main`
	stdos.Exit(2)     // want `avoid calling os.Exit in main.main`
	log.Fatalln("no") // want `avoid calling log.Fatalln in main.main`
	log.Println("fine")
}
