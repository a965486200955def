package main

import (
	"log"

	"github.com/phu68/Cong-cu-tinh-luong/internal/app/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
