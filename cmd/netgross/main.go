package main

import (
	"log"
	"os"

	"github.com/phu68/Cong-cu-tinh-luong/internal/app/netgross"
)

func main() {
	if err := netgross.NewApp().Run(os.Args); err != nil {
		log.Fatalf("netgross: %v", err)
	}
}
