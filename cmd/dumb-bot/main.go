package main

import (
	"bytes"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// A minimal HTTP client that joins a waiting pool and plays random legal
// moves. Useful for soaking the matchmaker and turn loop locally.

type view struct {
	Status string `json:"status"`
	Table  *struct {
		TableID     string   `json:"tableId"`
		CurrentTurn int      `json:"currentTurn"`
		Action      string   `json:"action"`
		Dice        []int    `json:"dice"`
		Movable     []string `json:"movable"`
		Players     []struct {
			UserID string `json:"userId"`
		} `json:"players"`
	} `json:"table"`
}

func main() {
	baseURL := getenv("BASE_URL", "http://localhost:8080")
	userID := getenv("USER_ID", "bot")
	tableTypeID := getenv("TABLE_TYPE_ID", "classic-2-free")

	client := &http.Client{Timeout: 10 * time.Second}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	post(client, baseURL+"/v1/waiting/join", map[string]any{
		"userId": userID, "tableTypeId": tableTypeID,
	})

	readied := map[string]bool{}
	for {
		time.Sleep(time.Second)
		var v view
		if !post2(client, baseURL+"/v1/reconnect", map[string]any{"userId": userID}, &v) {
			continue
		}
		if v.Status != "table" || v.Table == nil {
			if v.Status == "completed" || v.Status == "none" {
				log.Printf("bot %s: status %s, done", userID, v.Status)
				return
			}
			continue
		}
		t := v.Table
		if !readied[t.TableID] {
			post(client, baseURL+"/v1/table/ready", map[string]any{
				"userId": userID, "tableId": t.TableID,
			})
			readied[t.TableID] = true
			continue
		}
		if t.CurrentTurn >= len(t.Players) || t.Players[t.CurrentTurn].UserID != userID {
			continue
		}
		switch t.Action {
		case "rollDice":
			post(client, baseURL+"/v1/table/roll", map[string]any{
				"userId": userID, "tableId": t.TableID,
			})
		case "movePawn":
			if len(t.Movable) == 0 || len(t.Dice) == 0 {
				post(client, baseURL+"/v1/table/skip", map[string]any{
					"userId": userID, "tableId": t.TableID,
				})
				continue
			}
			post(client, baseURL+"/v1/table/move", map[string]any{
				"userId":  userID,
				"tableId": t.TableID,
				"pawnId":  t.Movable[rnd.Intn(len(t.Movable))],
				"dice":    t.Dice[0],
			})
		}
	}
}

func post(client *http.Client, url string, body map[string]any) {
	post2(client, url, body, nil)
}

func post2(client *http.Client, url string, body map[string]any, out any) bool {
	raw, _ := json.Marshal(body)
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		log.Printf("%s: %v", url, err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		log.Printf("%s: status %d", url, resp.StatusCode)
		return false
	}
	if out != nil && resp.StatusCode == http.StatusOK {
		return json.NewDecoder(resp.Body).Decode(out) == nil
	}
	return resp.StatusCode == http.StatusOK
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
