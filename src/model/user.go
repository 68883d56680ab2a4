package model

import (
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User carries the account identity plus the legal profile fields used by the
// petition generator. Password holds only the bcrypt hash; the plaintext
// credential is consumed at registration and never stored or serialized.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Password      string    `json:"-"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	TcKimlikNo    string    `json:"tcKimlikNo"`
	TaxID         string    `json:"taxId"`
	TaxOffice     string    `json:"taxOffice"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	IncomeSource  string    `json:"incomeSource,omitempty"`
	CompanyStatus string    `json:"companyStatus,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

var ErrUserNotFound = errors.New("user not found")

// HashPassword hashes the user's password using bcrypt.
func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a given password with the user's hashed password.
func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

// CreateUser inserts a new user into the database.
func (u *User) CreateUser(db *sql.DB) error {
	query := `
	INSERT INTO users (email, password, first_name, last_name, tc_kimlik_no, tax_id, tax_office, address, phone, income_source, company_status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(u.Email, u.Password, u.FirstName, u.LastName, u.TcKimlikNo,
		u.TaxID, u.TaxOffice, u.Address, u.Phone, u.IncomeSource, u.CompanyStatus)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

const userColumns = `id, email, password, first_name, last_name, tc_kimlik_no, tax_id, tax_office, address, phone, income_source, company_status`

func scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.Password, &user.FirstName, &user.LastName,
		&user.TcKimlikNo, &user.TaxID, &user.TaxOffice, &user.Address, &user.Phone,
		&user.IncomeSource, &user.CompanyStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user from the database by their email address.
func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetUserByID retrieves a user from the database by their id.
func GetUserByID(db *sql.DB, id int64) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// EmailExists reports whether a user with the given email is already registered.
func EmailExists(db *sql.DB, email string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(1) FROM users WHERE email = ?`, email).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateSession inserts a new session row for a freshly issued token pair.
func CreateSession(db *sql.DB, s *Session) error {
	query := `
	INSERT INTO sessions (user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := db.Exec(query, s.UserID, s.Token, s.RefreshToken, s.UserAgent, s.ClientIP, s.IsBlocked, s.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

const sessionColumns = `id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at`

func scanSession(row *sql.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.UserAgent, &s.ClientIP,
		&s.IsBlocked, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("session not found")
		}
		return nil, err
	}
	return &s, nil
}

// GetSessionByToken retrieves a live session by its access token. Blocked or
// expired rows never match, regardless of the token's own validity.
func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	row := db.QueryRow(`SELECT `+sessionColumns+` FROM sessions
	WHERE token = ? AND is_blocked = FALSE AND expires_at > ?`, token, time.Now())
	return scanSession(row)
}

// GetSessionByRefreshToken retrieves a live session by its refresh token.
func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	row := db.QueryRow(`SELECT `+sessionColumns+` FROM sessions
	WHERE refresh_token = ? AND is_blocked = FALSE AND expires_at > ?`, refreshToken, time.Now())
	return scanSession(row)
}

// DeleteSessionByToken removes a session row. Used when a refresh rotates the
// token pair.
func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}
