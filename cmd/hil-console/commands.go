// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-lpc/hil/canstore"
	"github.com/go-lpc/hil/hil"
)

// dispatch parses and runs one REPL line against facade, printing its
// result or error to stdout. It returns true when the console should
// exit.
func dispatch(facade *hil.Facade, line string) (quit bool) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true

	case "help":
		printHelp()

	case "set_do":
		run(args, 3, func() error {
			level, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("invalid level %q: %w", args[2], err)
			}
			return facade.SetDo(args[0], args[1], level)
		})

	case "hiz_do":
		run(args, 2, func() error { return facade.HiZDo(args[0], args[1]) })

	case "get_di":
		run(args, 2, func() error {
			v, err := facade.GetDi(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		})

	case "set_ao":
		run(args, 3, func() error {
			volts, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid volts %q: %w", args[2], err)
			}
			return facade.SetAo(args[0], args[1], volts)
		})

	case "hiz_ao":
		run(args, 2, func() error { return facade.HiZAo(args[0], args[1]) })

	case "get_ai":
		run(args, 2, func() error {
			v, err := facade.GetAi(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%.4f\n", v)
			return nil
		})

	case "set_pot":
		run(args, 3, func() error {
			ohms, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid ohms %q: %w", args[2], err)
			}
			return facade.SetPot(args[0], args[1], ohms)
		})

	case "send_can":
		run(args, 3, func() error {
			data, err := parseFieldList(args[3:])
			if err != nil {
				return err
			}
			return facade.SendCan(args[0], args[1], canstore.ByName(args[2]), data)
		})

	case "get_can":
		run(args, 2, func() error {
			filter := signalFilter(args[2:])
			msg, err := facade.GetLastCan(args[0], args[1], filter)
			if err != nil {
				return err
			}
			if msg == nil {
				fmt.Println("<no message>")
				return nil
			}
			fmt.Printf("%+v\n", *msg)
			return nil
		})

	case "get_all_can":
		run(args, 2, func() error {
			filter := signalFilter(args[2:])
			msgs, err := facade.GetAllCan(args[0], args[1], filter)
			if err != nil {
				return err
			}
			for _, msg := range msgs {
				fmt.Printf("%+v\n", msg)
			}
			return nil
		})

	case "clear_can":
		run(args, 2, func() error {
			return facade.ClearCan(args[0], args[1], signalFilter(args[2:]))
		})

	default:
		fmt.Printf("unknown command %q (try \"help\")\n", cmd)
	}

	return false
}

// run checks arg count before invoking fn, printing a usage error instead
// of panicking on a short command line.
func run(args []string, want int, fn func() error) {
	if len(args) < want {
		fmt.Printf("not enough arguments: want at least %d, got %d\n", want, len(args))
		return
	}
	if err := fn(); err != nil {
		fmt.Printf("error: %+v\n", err)
	}
}

// parseFieldList parses a list of "name=value" tokens into a field map,
// as used by send_can's signal payload.
func parseFieldList(toks []string) (map[string]float64, error) {
	out := make(map[string]float64, len(toks))
	for _, tok := range toks {
		name, val, ok := strings.Cut(tok, "=")
		if !ok {
			return nil, fmt.Errorf("invalid field %q: want name=value", tok)
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid field %q: %w", tok, err)
		}
		out[name] = v
	}
	return out, nil
}

// signalFilter builds an optional canstore.Filter from an optional
// trailing signal-name argument.
func signalFilter(args []string) canstore.Filter {
	if len(args) == 0 || args[0] == "" {
		return nil
	}
	sig := canstore.ByName(args[0])
	return &sig
}

func printHelp() {
	fmt.Println(`commands:
  set_do    <board> <net> <0|1>
  hiz_do    <board> <net>
  get_di    <board> <net>
  set_ao    <board> <net> <volts>
  hiz_ao    <board> <net>
  get_ai    <board> <net>
  set_pot   <board> <net> <ohms>
  send_can  <board> <net> <signal> [name=value ...]
  get_can   <board> <net> [signal]
  get_all_can <board> <net> [signal]
  clear_can <board> <net> [signal]
  help
  quit | exit`)
}
