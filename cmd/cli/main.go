package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "wardrobe":
		handleWardrobe(args)
	case "outfit":
		handleOutfit(args)
	case "admin":
		handleAdmin(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: wardrobe auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleWardrobe(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: wardrobe wardrobe <list|catalog>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listWardrobe(args[1:])
	case "catalog":
		listCatalog(args[1:])
	default:
		fmt.Printf("unknown wardrobe command: %s\n", subCmd)
	}
}

func handleOutfit(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: wardrobe outfit <list|create|update|delete>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listOutfits(args[1:])
	case "create":
		createOutfit(args[1:])
	case "update":
		updateOutfit(args[1:])
	case "delete":
		deleteOutfit(args[1:])
	default:
		fmt.Printf("unknown outfit command: %s\n", subCmd)
	}
}

func handleAdmin(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: wardrobe admin <users|import|assign>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "users":
		listUsers(args[1:])
	case "import":
		importCatalog(args[1:])
	case "assign":
		assignClothing(args[1:])
	default:
		fmt.Printf("unknown admin command: %s\n", subCmd)
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Println("Error: username and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"username": *username, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ User registered: %s\n", *username)
		if token, ok := result["token"].(string); ok {
			saveToken(token)
		}
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result)
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Println("Error: username and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"username": *username, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *username)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// Wardrobe commands
func listWardrobe(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/wardrobe", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Items []map[string]interface{} `json:"items"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tCOLOR")
	for _, item := range result.Items {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", item["id"], item["name"], item["category"], item["color"])
	}
	w.Flush()
}

func listCatalog(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/catalog", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Items []map[string]interface{} `json:"items"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY")
	for _, item := range result.Items {
		fmt.Fprintf(w, "%v\t%v\t%v\n", item["id"], item["name"], item["category"])
	}
	w.Flush()
}

// Outfit commands go over the websocket endpoint
func listOutfits(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	username := fs.String("user", "", "username")
	fs.Parse(args)

	reply, err := wsRequest(map[string]interface{}{
		"type":     "get_outfits",
		"username": *username,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	outfits, _ := reply["outfits"].([]interface{})
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tITEMS")
	for _, raw := range outfits {
		o, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		items, _ := o["items"].([]interface{})
		fmt.Fprintf(w, "%v\t%v\t%d\n", o["id"], o["name"], len(items))
	}
	w.Flush()
}

func createOutfit(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	username := fs.String("user", "", "username")
	name := fs.String("name", "", "outfit name")
	items := fs.String("items", "", "comma separated clothing item ids")
	fs.Parse(args)

	ids, err := parseIDs(*items)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	msg := map[string]interface{}{
		"type":     "create_outfit",
		"username": *username,
		"outfit":   map[string]interface{}{"name": *name, "item_ids": ids},
	}
	reply, err := wsRequest(msg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printOutfitReply(reply)
}

func updateOutfit(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	username := fs.String("user", "", "username")
	outfitID := fs.Int("id", 0, "outfit id")
	name := fs.String("name", "", "outfit name")
	items := fs.String("items", "", "comma separated clothing item ids")
	fs.Parse(args)

	ids, err := parseIDs(*items)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	msg := map[string]interface{}{
		"type":      "update_outfit",
		"username":  *username,
		"outfit_id": *outfitID,
		"outfit":    map[string]interface{}{"name": *name, "item_ids": ids},
	}
	reply, err := wsRequest(msg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printOutfitReply(reply)
}

func deleteOutfit(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	username := fs.String("user", "", "username")
	outfitID := fs.Int("id", 0, "outfit id")
	fs.Parse(args)

	reply, err := wsRequest(map[string]interface{}{
		"type":      "delete_outfit",
		"username":  *username,
		"outfit_id": *outfitID,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if reply["type"] == "outfit_deleted" {
		fmt.Printf("✓ Outfit %v deleted\n", reply["outfit_id"])
	} else {
		fmt.Printf("✗ %v\n", reply["message"])
	}
}

// Admin commands
func listUsers(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/admin/users", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Users []map[string]interface{} `json:"users"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tOWNED\tOUTFITS")
	for _, u := range result.Users {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", u["id"], u["username"], u["owned_count"], u["outfit_count"])
	}
	w.Flush()
}

func importCatalog(args []string) {
	_ = args
	req, _ := http.NewRequest("POST", getAPIURL()+"/admin/import", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Imported %v items (skipped %v)\n", result["imported"], result["skipped"])
	} else {
		fmt.Printf("✗ Import failed: %v\n", result)
	}
}

func assignClothing(args []string) {
	fs := flag.NewFlagSet("assign", flag.ExitOnError)
	userID := fs.Int("user-id", 0, "target user id")
	count := fs.Int("count", 5, "number of random items")
	fs.Parse(args)

	payload := map[string]int{"user_id": *userID, "count": *count}
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/admin/assign", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Assigned %v items\n", result["assigned"])
	} else {
		fmt.Printf("✗ Assignment failed: %v\n", result)
	}
}

// wsRequest opens a websocket connection, sends one message and waits
// for the reply.
func wsRequest(msg map[string]interface{}) (map[string]interface{}, error) {
	ws, _, err := websocket.DefaultDialer.Dial(getWSURL()+"/outfits", nil)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	if err := ws.WriteJSON(msg); err != nil {
		return nil, err
	}

	ws.SetReadDeadline(time.Now().Add(10 * time.Second))
	var reply map[string]interface{}
	if err := ws.ReadJSON(&reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func printOutfitReply(reply map[string]interface{}) {
	if reply["type"] == "error" {
		fmt.Printf("✗ %v\n", reply["message"])
		return
	}
	outfit, _ := reply["outfit"].(map[string]interface{})
	if outfit == nil {
		fmt.Printf("✗ unexpected reply: %v\n", reply)
		return
	}
	items, _ := outfit["items"].([]interface{})
	fmt.Printf("✓ Outfit %v (%v items)\n", outfit["id"], len(items))
}

func parseIDs(raw string) ([]int, error) {
	if raw == "" {
		return []int{}, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid item id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("WARDROBE_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func getWSURL() string {
	if url := os.Getenv("WARDROBE_WS"); url != "" {
		return url
	}
	return "ws://localhost:8080/ws"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.wardrobe/token"
}

func saveToken(token string) error {
	os.MkdirAll(os.Getenv("HOME")+"/.wardrobe", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`Wardrobe CLI

Usage:
  wardrobe <command> [options]

Commands:
  auth      User authentication (register, login, logout, who)
  wardrobe  Wardrobe views (list, catalog)
  outfit    Outfit operations over websocket (list, create, update, delete)
  admin     Admin operations (users, import, assign) - admin access required
  help      Show this help message

Environment Variables:
  WARDROBE_API    API endpoint (default: http://localhost:8080/api)
  WARDROBE_WS     Websocket endpoint (default: ws://localhost:8080/ws)

Examples:
  wardrobe auth register -username alice -password secret
  wardrobe auth login -username alice -password secret
  wardrobe wardrobe list
  wardrobe outfit create -user alice -name "Summer" -items 1,2,3
  wardrobe outfit list -user alice
`)
}
