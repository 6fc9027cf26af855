package main

import (
	"log"
	"net/http"

	"paperpipe/internal/api"
	"paperpipe/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	h := api.NewServer(cfg)
	log.Printf("paperpipe api listening on %s model=%s", cfg.APIAddr, cfg.GeminiModel)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
