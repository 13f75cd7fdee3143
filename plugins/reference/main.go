// Reference provider plugin: an in-memory filesystem speaking the line-JSON
// protocol. It exists to exercise the host end to end without network or
// archives; drop the built binary into the plugin directory to try it.
package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

const manifest = `{"name":"memfs","version":"1.0.0","type":"provider","description":"In-memory demo filesystem","icon":"M","schemes":["mem"]}`

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--plugin-info" {
		fmt.Println(manifest)
		return
	}

	p := newPlugin()
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	out := bufio.NewWriter(os.Stdout)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		var req map[string]any
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			reply(out, errResp("malformed request: "+err.Error(), ""))
			continue
		}
		resp, quit := p.dispatch(req)
		reply(out, resp)
		if quit {
			return
		}
	}
}

func reply(out *bufio.Writer, resp map[string]any) {
	raw, err := json.Marshal(resp)
	if err != nil {
		raw = []byte(`{"error":"encode response"}`)
	}
	_, _ = out.Write(raw)
	_ = out.WriteByte('\n')
	_ = out.Flush()
}

func errResp(msg, errType string) map[string]any {
	resp := map[string]any{"error": msg}
	if errType != "" {
		resp["error_type"] = errType
	}
	return resp
}

// ─── in-memory tree ──────────────────────────────────────────────────────────

type node struct {
	name     string
	isDir    bool
	data     []byte
	modified int64
	perm     uint32
	children map[string]*node
}

func dir(name string, children ...*node) *node {
	d := &node{name: name, isDir: true, perm: 0o755, modified: time.Now().Unix(), children: map[string]*node{}}
	for _, c := range children {
		d.children[c.name] = c
	}
	return d
}

func file(name, content string) *node {
	return &node{name: name, data: []byte(content), perm: 0o644, modified: time.Now().Unix()}
}

type plugin struct {
	root      *node
	sessionID string
	password  string
}

func newPlugin() *plugin {
	return &plugin{
		root: dir("",
			dir("docs",
				file("readme.txt", "memfs reference plugin\n"),
				file("notes.md", "# notes\n\nnothing yet\n"),
			),
			dir("empty"),
			file("hello.txt", "hello from memfs\n"),
		),
	}
}

// resolve walks an absolute slash path to a node.
func (p *plugin) resolve(path string) (*node, bool) {
	cur := p.root
	for _, part := range splitPath(path) {
		if !cur.isDir {
			return nil, false
		}
		next, ok := cur.children[part]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// resolveParent returns the directory holding path's last element.
func (p *plugin) resolveParent(path string) (*node, string, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, "", false
	}
	parent, ok := p.resolve("/" + strings.Join(parts[:len(parts)-1], "/"))
	if !ok || !parent.isDir {
		return nil, "", false
	}
	return parent, parts[len(parts)-1], true
}

func splitPath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// ─── dispatch ────────────────────────────────────────────────────────────────

func (p *plugin) dispatch(req map[string]any) (resp map[string]any, quit bool) {
	command, _ := req["command"].(string)
	switch command {
	case "get_dialog_fields":
		return p.dialogFields(), false
	case "validate_config":
		return p.validateConfig(req), false
	case "connect":
		return p.connect(req), false
	case "disconnect":
		return map[string]any{"success": true}, true
	}

	if p.sessionID == "" {
		return errResp("not connected", "connection"), false
	}
	if sid, _ := req["session_id"].(string); sid != p.sessionID {
		return errResp("unknown session", "connection"), false
	}

	switch command {
	case "list_directory":
		return p.listDirectory(req), false
	case "read_file":
		return p.readFile(req), false
	case "write_file":
		return p.writeFile(req), false
	case "delete":
		return p.delete(req), false
	case "mkdir":
		return p.mkdir(req), false
	case "rename":
		return p.rename(req), false
	case "copy_file":
		return p.copyFile(req), false
	case "set_attributes":
		return p.setAttributes(req), false
	case "get_free_space":
		return map[string]any{"free_space": 1 << 30}, false
	default:
		return errResp("unknown command: "+command, ""), false
	}
}

func (p *plugin) dialogFields() map[string]any {
	return map[string]any{
		"fields": []any{
			map[string]any{
				"id": "label", "label": "Label", "type": "text",
				"default": "memfs", "required": false,
				"help": "shown as the pane title",
			},
			map[string]any{
				"id": "password", "label": "Password", "type": "password",
				"required": false,
				"help":     "leave empty unless a password was set",
			},
			map[string]any{
				"id": "locked", "label": "Require password", "type": "checkbox",
				"default": "false", "required": false,
			},
		},
	}
}

func configValues(req map[string]any) map[string]string {
	values := map[string]string{}
	raw, _ := req["config"].(map[string]any)
	for k, v := range raw {
		if s, ok := v.(string); ok {
			values[k] = s
		}
	}
	return values
}

func (p *plugin) validateConfig(req map[string]any) map[string]any {
	values := configValues(req)
	if strings.ContainsAny(values["label"], "\n\t") {
		return map[string]any{"valid": false, "error": "label must be a single line"}
	}
	return map[string]any{"valid": true}
}

func (p *plugin) connect(req map[string]any) map[string]any {
	values := configValues(req)
	if values["locked"] == "true" && values["password"] == "" {
		return errResp("PASSWORD_REQUIRED: this memfs is locked", "auth")
	}
	p.password = values["password"]
	p.sessionID = fmt.Sprintf("memfs-%d", time.Now().UnixNano())
	label := values["label"]
	if label == "" {
		label = "memfs"
	}
	return map[string]any{
		"success":     true,
		"session_id":  p.sessionID,
		"short_label": label,
		"home_path":   "/",
	}
}

func (p *plugin) listDirectory(req map[string]any) map[string]any {
	path, _ := req["path"].(string)
	n, ok := p.resolve(path)
	if !ok {
		return errResp("no such directory: "+path, "not_found")
	}
	if !n.isDir {
		return errResp("not a directory: "+path, "")
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]any, 0, len(names))
	for _, name := range names {
		c := n.children[name]
		entries = append(entries, map[string]any{
			"name":        c.name,
			"path":        joinPath(path, c.name),
			"is_dir":      c.isDir,
			"size":        len(c.data),
			"modified":    c.modified,
			"is_hidden":   strings.HasPrefix(c.name, "."),
			"permissions": c.perm,
		})
	}
	return map[string]any{"entries": entries}
}

func joinPath(dir, name string) string {
	if dir == "" || dir == "/" {
		return "/" + name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

func (p *plugin) readFile(req map[string]any) map[string]any {
	path, _ := req["path"].(string)
	n, ok := p.resolve(path)
	if !ok {
		return errResp("no such file: "+path, "not_found")
	}
	if n.isDir {
		return errResp("is a directory: "+path, "")
	}
	return map[string]any{"data": base64.StdEncoding.EncodeToString(n.data)}
}

func (p *plugin) writeFile(req map[string]any) map[string]any {
	path, _ := req["path"].(string)
	encoded, _ := req["data"].(string)
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return errResp("data is not base64", "")
	}
	parent, name, ok := p.resolveParent(path)
	if !ok {
		return errResp("no such directory for: "+path, "not_found")
	}
	if existing, found := parent.children[name]; found && existing.isDir {
		return errResp("is a directory: "+path, "")
	}
	parent.children[name] = &node{name: name, data: data, perm: 0o644, modified: time.Now().Unix()}
	return map[string]any{"success": true}
}

func (p *plugin) delete(req map[string]any) map[string]any {
	path, _ := req["path"].(string)
	recursive, _ := req["recursive"].(bool)
	parent, name, ok := p.resolveParent(path)
	if !ok {
		return errResp("no such path: "+path, "not_found")
	}
	n, found := parent.children[name]
	if !found {
		return errResp("no such path: "+path, "not_found")
	}
	if n.isDir && len(n.children) > 0 && !recursive {
		return errResp("directory not empty: "+path, "")
	}
	delete(parent.children, name)
	return map[string]any{"success": true}
}

func (p *plugin) mkdir(req map[string]any) map[string]any {
	path, _ := req["path"].(string)
	parent, name, ok := p.resolveParent(path)
	if !ok {
		return errResp("no such directory for: "+path, "not_found")
	}
	if _, exists := parent.children[name]; exists {
		return errResp("already exists: "+path, "")
	}
	parent.children[name] = dir(name)
	return map[string]any{"success": true}
}

func (p *plugin) rename(req map[string]any) map[string]any {
	from, _ := req["from"].(string)
	to, _ := req["to"].(string)
	fromParent, fromName, ok := p.resolveParent(from)
	if !ok {
		return errResp("no such path: "+from, "not_found")
	}
	n, found := fromParent.children[fromName]
	if !found {
		return errResp("no such path: "+from, "not_found")
	}
	toParent, toName, ok := p.resolveParent(to)
	if !ok {
		return errResp("no such directory for: "+to, "not_found")
	}
	delete(fromParent.children, fromName)
	n.name = toName
	toParent.children[toName] = n
	return map[string]any{"success": true}
}

func (p *plugin) copyFile(req map[string]any) map[string]any {
	from, _ := req["from"].(string)
	to, _ := req["to"].(string)
	src, ok := p.resolve(from)
	if !ok {
		return errResp("no such file: "+from, "not_found")
	}
	if src.isDir {
		return errResp("is a directory: "+from, "")
	}
	parent, name, ok := p.resolveParent(to)
	if !ok {
		return errResp("no such directory for: "+to, "not_found")
	}
	data := make([]byte, len(src.data))
	copy(data, src.data)
	parent.children[name] = &node{name: name, data: data, perm: src.perm, modified: time.Now().Unix()}
	return map[string]any{"success": true}
}

func (p *plugin) setAttributes(req map[string]any) map[string]any {
	path, _ := req["path"].(string)
	n, ok := p.resolve(path)
	if !ok {
		return errResp("no such path: "+path, "not_found")
	}
	if modified, found := req["modified"].(float64); found {
		n.modified = int64(modified)
	}
	if perm, found := req["permissions"].(float64); found {
		n.perm = uint32(perm)
	}
	return map[string]any{"success": true}
}
