package testutils

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// Steps of the git data API that FakeGitHub can be told to fail
const (
	StepGetRef       = "GetRef"
	StepCreateRef    = "CreateRef"
	StepCreateTree   = "CreateTree"
	StepCreateCommit = "CreateCommit"
	StepUpdateRef    = "UpdateRef"
	StepExchangeCode = "ExchangeCode"
)

type FakeUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type FakeRepo struct {
	ID            int64
	Owner         string
	Name          string
	DefaultBranch string
	Files         map[string]string
	// LargeFiles are served the way GitHub serves files over 1 MB: no inline content, only a blob SHA
	LargeFiles map[string]string
	// Refs maps branch name to commit SHA
	Refs map[string]string
}

type FakeTreeEntry struct {
	Path    string `json:"path"`
	Mode    string `json:"mode"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type FakeCommit struct {
	SHA     string
	Message string
	TreeSHA string
	Parents []string
}

// FakeGitHub is an in-memory stand-in for github.com OAuth and api.github.com.
// Both are served from the same httptest server.
type FakeGitHub struct {
	Server *httptest.Server

	mu          sync.Mutex
	user        FakeUser
	accessToken string
	codes       map[string]string
	repos       map[int64]*FakeRepo
	trees       map[string][]FakeTreeEntry
	commits     map[string]FakeCommit
	failSteps   map[string]int
	calls       []string
	sequence    int
}

// NewFakeGitHub starts a fake that accepts accessToken as the only valid bearer token
func NewFakeGitHub(user FakeUser, accessToken string) *FakeGitHub {
	f := &FakeGitHub{
		user:        user,
		accessToken: accessToken,
		codes:       make(map[string]string),
		repos:       make(map[int64]*FakeRepo),
		trees:       make(map[string][]FakeTreeEntry),
		commits:     make(map[string]FakeCommit),
		failSteps:   make(map[string]int),
	}

	router := mux.NewRouter()
	router.HandleFunc("/login/oauth/access_token", f.handleAccessToken).Methods("POST")

	api := router.NewRoute().Subrouter()
	api.Use(f.requireToken)
	api.HandleFunc("/user", f.handleGetUser).Methods("GET")
	api.HandleFunc("/user/repos", f.handleListRepos).Methods("GET")
	api.HandleFunc("/repositories/{id:[0-9]+}", f.handleGetRepoByID).Methods("GET")
	api.HandleFunc("/repos/{owner}/{repo}/contents/{path:.+}", f.handleGetContents).Methods("GET")
	api.HandleFunc("/repos/{owner}/{repo}/git/blobs/{sha}", f.handleGetBlob).Methods("GET")
	api.HandleFunc("/repos/{owner}/{repo}/git/ref/heads/{branch:.+}", f.handleGetRef).Methods("GET")
	api.HandleFunc("/repos/{owner}/{repo}/git/refs", f.handleCreateRef).Methods("POST")
	api.HandleFunc("/repos/{owner}/{repo}/git/trees", f.handleCreateTree).Methods("POST")
	api.HandleFunc("/repos/{owner}/{repo}/git/commits", f.handleCreateCommit).Methods("POST")
	api.HandleFunc("/repos/{owner}/{repo}/git/refs/heads/{branch:.+}", f.handleUpdateRef).Methods("PATCH")

	f.Server = httptest.NewServer(router)
	return f
}

func (f *FakeGitHub) Close() {
	f.Server.Close()
}

// URL is the base address for both OAuth and API calls
func (f *FakeGitHub) URL() string {
	return f.Server.URL
}

// AddAuthorizationCode registers a one-time code that exchanges for the fake's access token
func (f *FakeGitHub) AddAuthorizationCode(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = f.accessToken
}

// AddRepo registers a repository whose default branch points at headSHA
func (f *FakeGitHub) AddRepo(repo FakeRepo, headSHA string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if repo.Files == nil {
		repo.Files = make(map[string]string)
	}
	repo.Refs = map[string]string{repo.DefaultBranch: headSHA}
	stored := repo
	f.repos[repo.ID] = &stored
}

// FailStep makes the named step respond with status until cleared
func (f *FakeGitHub) FailStep(step string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSteps[step] = status
}

// CallCount returns how many times the named step was invoked
func (f *FakeGitHub) CallCount(step string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == step {
			count++
		}
	}
	return count
}

// Calls returns the ordered list of git data and OAuth steps invoked
func (f *FakeGitHub) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// BranchSHA returns the commit a branch points at
func (f *FakeGitHub) BranchSHA(repoID int64, branch string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	repo, ok := f.repos[repoID]
	if !ok {
		return "", false
	}
	sha, ok := repo.Refs[branch]
	return sha, ok
}

// Branches returns every branch name of a repository
func (f *FakeGitHub) Branches(repoID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	if repo, ok := f.repos[repoID]; ok {
		for name := range repo.Refs {
			names = append(names, name)
		}
	}
	return names
}

// Commit returns a commit created through the fake
func (f *FakeGitHub) Commit(sha string) (FakeCommit, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	commit, ok := f.commits[sha]
	return commit, ok
}

// TreeFiles returns path to content for a tree created through the fake
func (f *FakeGitHub) TreeFiles(treeSHA string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	files := make(map[string]string)
	for _, entry := range f.trees[treeSHA] {
		files[entry.Path] = entry.Content
	}
	return files
}

// TreeEntries returns the raw entries of a tree created through the fake
func (f *FakeGitHub) TreeEntries(treeSHA string) []FakeTreeEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeTreeEntry(nil), f.trees[treeSHA]...)
}

func (f *FakeGitHub) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.accessToken {
			writeFakeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// record notes a step and reports the injected failure status, if any. Caller holds mu.
func (f *FakeGitHub) record(step string) int {
	f.calls = append(f.calls, step)
	return f.failSteps[step]
}

func (f *FakeGitHub) nextSHA(kind string) string {
	f.sequence++
	return fmt.Sprintf("%s%0*d", kind, 40-len(kind), f.sequence)
}

func (f *FakeGitHub) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if status := f.record(StepExchangeCode); status != 0 {
		writeFakeJSON(w, status, map[string]string{"message": "unavailable"})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	code := r.PostForm.Get("code")
	token, ok := f.codes[code]
	if !ok {
		// GitHub reports exchange errors with a 200 status
		writeFakeJSON(w, http.StatusOK, map[string]string{
			"error":             "bad_verification_code",
			"error_description": "The code passed is incorrect or expired.",
		})
		return
	}
	delete(f.codes, code)

	writeFakeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
		"scope":        "repo",
	})
}

func (f *FakeGitHub) handleGetUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, f.user)
}

func (f *FakeGitHub) handleListRepos(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Query().Get("type") != "owner" || r.URL.Query().Get("sort") != "updated" {
		writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "unexpected query"})
		return
	}

	// Higher ids stand in for more recently updated repositories
	var ids []int64
	for id := range f.repos {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] > ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}

	result := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		result = append(result, repoJSON(f.repos[id]))
	}
	writeFakeJSON(w, http.StatusOK, result)
}

func (f *FakeGitHub) handleGetRepoByID(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	repo, ok := f.repos[id]
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeFakeJSON(w, http.StatusOK, repoJSON(repo))
}

func (f *FakeGitHub) handleGetContents(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.findRepo(r)
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	path := mux.Vars(r)["path"]
	name := path[strings.LastIndex(path, "/")+1:]
	if large, ok := repo.LargeFiles[path]; ok {
		writeFakeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "none",
			"name":     name,
			"path":     path,
			"size":     len(large),
			"sha":      blobSHA(large),
			"content":  "",
		})
		return
	}
	content, ok := repo.Files[path]
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	writeFakeJSON(w, http.StatusOK, map[string]any{
		"type":     "file",
		"encoding": "base64",
		"name":     name,
		"path":     path,
		"content":  base64.StdEncoding.EncodeToString([]byte(content)),
	})
}

func (f *FakeGitHub) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.findRepo(r)
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	sha := mux.Vars(r)["sha"]
	for _, content := range repo.LargeFiles {
		if blobSHA(content) == sha {
			w.Header().Set("Content-Type", "application/vnd.github.v3.raw")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(content))
			return
		}
	}
	writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func blobSHA(content string) string {
	return fmt.Sprintf("%x", sha1.Sum([]byte(content)))
}

func (f *FakeGitHub) handleGetRef(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if status := f.record(StepGetRef); status != 0 {
		writeFakeJSON(w, status, map[string]string{"message": "injected failure"})
		return
	}
	repo, ok := f.findRepo(r)
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	branch := mux.Vars(r)["branch"]
	sha, ok := repo.Refs[branch]
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeFakeJSON(w, http.StatusOK, refJSON(branch, sha))
}

func (f *FakeGitHub) handleCreateRef(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if status := f.record(StepCreateRef); status != 0 {
		writeFakeJSON(w, status, map[string]string{"message": "injected failure"})
		return
	}
	repo, ok := f.findRepo(r)
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	var body struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !strings.HasPrefix(body.Ref, "refs/heads/") {
		writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid request"})
		return
	}
	branch := strings.TrimPrefix(body.Ref, "refs/heads/")
	if _, exists := repo.Refs[branch]; exists {
		writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Reference already exists"})
		return
	}
	repo.Refs[branch] = body.SHA
	writeFakeJSON(w, http.StatusCreated, refJSON(branch, body.SHA))
}

func (f *FakeGitHub) handleCreateTree(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if status := f.record(StepCreateTree); status != 0 {
		writeFakeJSON(w, status, map[string]string{"message": "injected failure"})
		return
	}

	var body struct {
		Tree []FakeTreeEntry `json:"tree"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Tree) == 0 {
		writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid tree"})
		return
	}
	sha := f.nextSHA("tree")
	f.trees[sha] = body.Tree
	writeFakeJSON(w, http.StatusCreated, map[string]any{"sha": sha})
}

func (f *FakeGitHub) handleCreateCommit(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if status := f.record(StepCreateCommit); status != 0 {
		writeFakeJSON(w, status, map[string]string{"message": "injected failure"})
		return
	}

	var body struct {
		Message string   `json:"message"`
		Tree    string   `json:"tree"`
		Parents []string `json:"parents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid commit"})
		return
	}
	if _, ok := f.trees[body.Tree]; !ok {
		writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Tree not found"})
		return
	}
	sha := f.nextSHA("commit")
	f.commits[sha] = FakeCommit{SHA: sha, Message: body.Message, TreeSHA: body.Tree, Parents: body.Parents}
	writeFakeJSON(w, http.StatusCreated, map[string]any{"sha": sha, "message": body.Message})
}

func (f *FakeGitHub) handleUpdateRef(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if status := f.record(StepUpdateRef); status != 0 {
		writeFakeJSON(w, status, map[string]string{"message": "injected failure"})
		return
	}
	repo, ok := f.findRepo(r)
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	branch := mux.Vars(r)["branch"]
	if _, exists := repo.Refs[branch]; !exists {
		writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Reference does not exist"})
		return
	}

	var body struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid request"})
		return
	}
	repo.Refs[branch] = body.SHA
	writeFakeJSON(w, http.StatusOK, refJSON(branch, body.SHA))
}

func (f *FakeGitHub) findRepo(r *http.Request) (*FakeRepo, bool) {
	vars := mux.Vars(r)
	for _, repo := range f.repos {
		if repo.Owner == vars["owner"] && repo.Name == vars["repo"] {
			return repo, true
		}
	}
	return nil, false
}

func repoJSON(repo *FakeRepo) map[string]any {
	return map[string]any{
		"id":             repo.ID,
		"name":           repo.Name,
		"full_name":      repo.Owner + "/" + repo.Name,
		"owner":          map[string]any{"login": repo.Owner},
		"default_branch": repo.DefaultBranch,
	}
}

func refJSON(branch, sha string) map[string]any {
	return map[string]any{
		"ref":    "refs/heads/" + branch,
		"object": map[string]any{"sha": sha, "type": "commit"},
	}
}

func writeFakeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
