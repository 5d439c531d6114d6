package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/kindelia-network/gkind/crypto"
)

type outputInspect struct {
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey,omitempty"`
}

var privateFlag = &cli.BoolFlag{
	Name:  "private",
	Usage: "include the private key in the output",
}

var commandInspect = &cli.Command{
	Name:      "inspect",
	Usage:     "inspect a keyfile",
	ArgsUsage: "<keyfile>",
	Description: `
Print various information about the keyfile.

Private key information can be printed by using the --private flag;
make sure to use this feature with great caution!`,
	Flags: []cli.Flag{
		jsonFlag,
		privateFlag,
	},
	Action: func(ctx *cli.Context) error {
		keyfilepath := ctx.Args().First()
		key, err := crypto.LoadECDSA(keyfilepath)
		if err != nil {
			fatalf("Failed to read the keyfile at '%s': %v", keyfilepath, err)
		}

		addr := crypto.PubkeyToAddress(key.PublicKey)
		out := outputInspect{
			Address:   addr.Hex(),
			PublicKey: hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey)),
		}
		if ctx.Bool(privateFlag.Name) {
			out.PrivateKey = hex.EncodeToString(crypto.FromECDSA(key))
		}

		if ctx.Bool(jsonFlag.Name) {
			mustPrintJSON(out)
			return nil
		}
		fmt.Println("Address:       ", out.Address)
		fmt.Println("Public key:    ", out.PublicKey)
		if out.PrivateKey != "" {
			fmt.Println("Private key:   ", out.PrivateKey)
		}
		return nil
	},
}
