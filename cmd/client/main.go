package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"matchbook/internal/domain"
	"matchbook/internal/wire"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the matching server")
	owner := flag.String("owner", "", "owner username (compulsory)")
	action := flag.String("action", "place", "action to perform: place, cancel, modify, subscribe")

	symbol := flag.String("symbol", "BTC-USD", "instrument symbol")
	sideStr := flag.String("side", "buy", "order side: buy or sell")
	typeStr := flag.String("type", "limit", "order type: limit or market")
	price := flag.Int64("price", 100, "limit price as an integer in the instrument's price units (a multiple of its tick size)")
	qtyStr := flag.String("qty", "10", "quantity or comma-separated list (e.g. 10,20,50)")

	orderID := flag.Int64("order-id", 0, "resting order id, required for cancel/modify")

	flag.Parse()

	if *owner == "" {
		fmt.Println("Error: -owner is compulsory.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s as %q\n", *serverAddr, *owner)

	go readReports(conn)

	side := domain.Buy
	if strings.ToLower(*sideStr) == "sell" {
		side = domain.Sell
	}
	orderType := domain.Limit
	if strings.ToLower(*typeStr) == "market" {
		orderType = domain.Market
	}

	switch strings.ToLower(*action) {
	case "place":
		for _, q := range parseQuantities(*qtyStr) {
			if err := sendNewOrder(conn, *symbol, *owner, side, orderType, domain.Price(*price), q); err != nil {
				log.Printf("failed to place order (qty %d): %v", q, err)
			} else {
				fmt.Printf("-> sent %s order: %s qty=%d price=%d\n", strings.ToUpper(*sideStr), *symbol, q, *price)
			}
			time.Sleep(5 * time.Millisecond)
		}
	case "cancel":
		if *orderID == 0 {
			log.Fatal("Error: -order-id is required for cancel")
		}
		if err := sendCancel(conn, *symbol, *orderID); err != nil {
			log.Printf("failed to send cancel: %v", err)
		} else {
			fmt.Printf("-> sent cancel for order %d\n", *orderID)
		}
	case "modify":
		if *orderID == 0 {
			log.Fatal("Error: -order-id is required for modify")
		}
		qty, err := strconv.ParseUint(*qtyStr, 10, 64)
		if err != nil {
			log.Fatalf("invalid -qty: %v", err)
		}
		if err := sendModify(conn, *symbol, *orderID, qty); err != nil {
			log.Printf("failed to send modify: %v", err)
		} else {
			fmt.Printf("-> sent modify for order %d -> qty %d\n", *orderID, qty)
		}
	case "subscribe":
		if err := sendSubscribe(conn, *symbol, *owner); err != nil {
			log.Printf("failed to subscribe: %v", err)
		} else {
			fmt.Printf("-> subscribed to %s\n", *symbol)
		}
	default:
		log.Fatalf("unknown action: %s", *action)
	}

	fmt.Println("\nlistening for reports... (press Ctrl+C to exit)")
	select {}
}

func parseQuantities(input string) []uint64 {
	var result []uint64
	for _, p := range strings.Split(input, ",") {
		p = strings.TrimSpace(p)
		if v, err := strconv.ParseUint(p, 10, 64); err == nil {
			result = append(result, v)
		} else {
			log.Printf("warning: invalid quantity %q, skipping", p)
		}
	}
	return result
}

func sendNewOrder(conn net.Conn, symbol, owner string, side domain.Side, kind domain.OrderType, price domain.Price, qty uint64) error {
	symBytes := []byte(symbol)
	ownerBytes := []byte(owner)
	buf := make([]byte, 2+2+1+1+8+8+1+len(symBytes)+len(ownerBytes))
	binary.BigEndian.PutUint16(buf[0:2], uint16(wire.TypeNewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(symBytes)))
	buf[4] = byte(side)
	buf[5] = byte(kind)
	binary.BigEndian.PutUint64(buf[6:14], uint64(price))
	binary.BigEndian.PutUint64(buf[14:22], qty)
	buf[22] = byte(len(ownerBytes))
	off := 23
	copy(buf[off:off+len(symBytes)], symBytes)
	off += len(symBytes)
	copy(buf[off:], ownerBytes)
	_, err := conn.Write(buf)
	return err
}

func sendCancel(conn net.Conn, symbol string, orderID int64) error {
	symBytes := []byte(symbol)
	buf := make([]byte, 2+2+8+len(symBytes))
	binary.BigEndian.PutUint16(buf[0:2], uint16(wire.TypeCancelOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(symBytes)))
	copy(buf[4:4+len(symBytes)], symBytes)
	binary.BigEndian.PutUint64(buf[4+len(symBytes):], uint64(orderID))
	_, err := conn.Write(buf)
	return err
}

func sendModify(conn net.Conn, symbol string, orderID int64, qty uint64) error {
	symBytes := []byte(symbol)
	buf := make([]byte, 2+2+8+8+len(symBytes))
	binary.BigEndian.PutUint16(buf[0:2], uint16(wire.TypeModifyOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(symBytes)))
	off := 4
	copy(buf[off:off+len(symBytes)], symBytes)
	off += len(symBytes)
	binary.BigEndian.PutUint64(buf[off:off+8], uint64(orderID))
	off += 8
	binary.BigEndian.PutUint64(buf[off:off+8], qty)
	_, err := conn.Write(buf)
	return err
}

func sendSubscribe(conn net.Conn, symbol, owner string) error {
	symBytes := []byte(symbol)
	ownerBytes := []byte(owner)
	buf := make([]byte, 2+2+1+len(symBytes)+len(ownerBytes))
	binary.BigEndian.PutUint16(buf[0:2], uint16(wire.TypeSubscribe))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(symBytes)))
	buf[4] = byte(len(ownerBytes))
	off := 5
	copy(buf[off:off+len(symBytes)], symBytes)
	off += len(symBytes)
	copy(buf[off:], ownerBytes)
	_, err := conn.Write(buf)
	return err
}

// readReports prints execution/error reports as they stream back, mirroring
// the teacher's readReports in cmd/client/client.go but against this
// module's report layout (see wire.ExecutionReport/ErrorReport.Serialize).
func readReports(conn net.Conn) {
	for {
		typeBuf := make([]byte, 2)
		if _, err := io.ReadFull(conn, typeBuf); err != nil {
			if err != io.EOF {
				log.Printf("connection lost: %v", err)
			}
			os.Exit(0)
		}
		typ := wire.ReportType(binary.BigEndian.Uint16(typeBuf))

		switch typ {
		case wire.TypeExecutionReport:
			rest := make([]byte, 2+8+8+8)
			if _, err := io.ReadFull(conn, rest); err != nil {
				log.Printf("error reading execution report: %v", err)
				return
			}
			symLen := binary.BigEndian.Uint16(rest[0:2])
			restingID := int64(binary.BigEndian.Uint64(rest[2:10]))
			qty := binary.BigEndian.Uint64(rest[10:18])
			price := domain.Price(binary.BigEndian.Uint64(rest[18:26]))

			symBuf := make([]byte, symLen)
			if _, err := io.ReadFull(conn, symBuf); err != nil {
				log.Printf("error reading execution report symbol: %v", err)
				return
			}
			fmt.Printf("\n[EXECUTION] %s resting=%d qty=%d price=%d\n", string(symBuf), restingID, qty, price)

		case wire.TypeBookUpdate:
			head := make([]byte, 2+8+2+2)
			if _, err := io.ReadFull(conn, head); err != nil {
				log.Printf("error reading snapshot report: %v", err)
				return
			}
			symLen := binary.BigEndian.Uint16(head[0:2])
			version := binary.BigEndian.Uint64(head[2:10])
			bidCount := binary.BigEndian.Uint16(head[10:12])
			askCount := binary.BigEndian.Uint16(head[12:14])

			symBuf := make([]byte, symLen)
			if _, err := io.ReadFull(conn, symBuf); err != nil {
				log.Printf("error reading snapshot symbol: %v", err)
				return
			}
			levels := make([]byte, (int(bidCount)+int(askCount))*16)
			if _, err := io.ReadFull(conn, levels); err != nil {
				log.Printf("error reading snapshot levels: %v", err)
				return
			}
			fmt.Printf("\n[SNAPSHOT] %s version=%d bids=%d asks=%d\n", string(symBuf), version, bidCount, askCount)

		case wire.TypeErrorReport:
			lenBuf := make([]byte, 4)
			if _, err := io.ReadFull(conn, lenBuf); err != nil {
				log.Printf("error reading error report length: %v", err)
				return
			}
			msgBuf := make([]byte, binary.BigEndian.Uint32(lenBuf))
			if _, err := io.ReadFull(conn, msgBuf); err != nil {
				log.Printf("error reading error report body: %v", err)
				return
			}
			fmt.Printf("\n[SERVER ERROR] %s\n", string(msgBuf))

		default:
			log.Printf("unknown report type %d", typ)
			return
		}
	}
}
