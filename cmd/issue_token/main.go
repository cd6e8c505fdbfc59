// issue_token emite un token de operador firmado con JWT_SECRET para llamar a la API.
//
// Uso: go run ./cmd/issue_token <user_id> [nombre] [minutos]
// Lee JWT_SECRET, JWT_ISSUER y JWT_EXPIRATION_MINUTES igual que el servidor.
// Escribe el token en stdout.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/jwt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Uso: issue_token <user_id> [nombre] [minutos]")
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}

	userID := os.Args[1]
	name := ""
	if len(os.Args) > 2 {
		name = os.Args[2]
	}
	minutes := cfg.JWT.Expiration
	if len(os.Args) > 3 {
		minutes, err = strconv.Atoi(os.Args[3])
		if err != nil || minutes <= 0 {
			fmt.Fprintf(os.Stderr, "Minutos inválidos: %q\n", os.Args[3])
			os.Exit(2)
		}
	}

	token, err := jwt.Generate(cfg.JWT.Secret, userID, name, cfg.JWT.Issuer, minutes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
