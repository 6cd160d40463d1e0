package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"rentmatch/internal/domain"
)

// Repo implements the catalog, negotiation, messaging, and favorites ports on
// one MySQL database.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func valTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// zero time.Time is out of range for a MySQL DATETIME; store NULL instead.
func valZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func scanTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// ---- catalog ----

func (r *Repo) UpsertProperty(ctx context.Context, p domain.PropertyRecord) error {
	amen, _ := json.Marshal(p.Amenities)
	extra, _ := json.Marshal(p.ExtraRooms)
	photos, _ := json.Marshal(p.PhotoURLs)
	_, err := r.db.ExecContext(ctx, upsertPropertySQL,
		p.ID,
		p.OwnerID,
		p.Title,
		p.Price,
		p.Location,
		p.Neighborhood,
		p.Rooms,
		p.Bathrooms,
		p.LivingRooms,
		p.Size,
		p.Floor,
		p.Shelter,
		p.PropertyType,
		p.Renovation,
		p.Description,
		string(amen),
		string(extra),
		string(photos),
		p.ImageURL,
		valTime(p.AvailableFrom),
		valTime(p.AvailableTo),
	)
	return err
}

func (r *Repo) ListPublished(ctx context.Context) ([]domain.PropertyRecord, error) {
	rows, err := r.db.QueryContext(ctx, listPublishedSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PropertyRecord
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProperty(ctx context.Context, id int64) (domain.PropertyRecord, error) {
	row := r.db.QueryRowContext(ctx, getPropertySQL, id)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return domain.PropertyRecord{}, domain.ErrNotFound
	}
	return p, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanProperty(row rowScanner) (domain.PropertyRecord, error) {
	var p domain.PropertyRecord
	var amenJSON, extraJSON, photosJSON []byte
	var from, to sql.NullTime
	if err := row.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Price, &p.Location, &p.Neighborhood,
		&p.Rooms, &p.Bathrooms, &p.LivingRooms, &p.Size, &p.Floor, &p.Shelter,
		&p.PropertyType, &p.Renovation, &p.Description,
		&amenJSON, &extraJSON, &photosJSON, &p.ImageURL, &from, &to,
	); err != nil {
		return domain.PropertyRecord{}, err
	}
	_ = json.Unmarshal(amenJSON, &p.Amenities)
	_ = json.Unmarshal(extraJSON, &p.ExtraRooms)
	_ = json.Unmarshal(photosJSON, &p.PhotoURLs)
	p.AvailableFrom = scanTime(from)
	p.AvailableTo = scanTime(to)
	return p, nil
}

// ---- negotiations ----

func (r *Repo) Create(ctx context.Context, n domain.Negotiation) (domain.Negotiation, error) {
	res, err := r.db.ExecContext(ctx, insertNegotiationSQL,
		n.PropertyID, n.RenterID, n.OwnerID,
		valZeroTime(n.From), valZeroTime(n.To), n.Message, string(n.Status),
		n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return domain.Negotiation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Negotiation{}, err
	}
	n.ID = id
	return n, nil
}

func (r *Repo) Update(ctx context.Context, n domain.Negotiation) (domain.Negotiation, error) {
	// RowsAffected of 0 can mean either "missing row" or "identical values";
	// callers always load before updating, so neither case warrants an error.
	_, err := r.db.ExecContext(ctx, updateNegotiationSQL, string(n.Status), n.UpdatedAt, n.ID)
	if err != nil {
		return domain.Negotiation{}, err
	}
	return n, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteNegotiationSQL, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context, renterID int64) ([]domain.Negotiation, error) {
	rows, err := r.db.QueryContext(ctx, listNegotiationsSQL, renterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Negotiation
	for rows.Next() {
		n, err := scanNegotiation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repo) GetByCandidate(ctx context.Context, renterID, propertyID int64) (domain.Negotiation, error) {
	row := r.db.QueryRowContext(ctx, getByCandidateSQL, renterID, propertyID)
	n, err := scanNegotiation(row)
	if err == sql.ErrNoRows {
		return domain.Negotiation{}, domain.ErrNotFound
	}
	return n, err
}

func scanNegotiation(row rowScanner) (domain.Negotiation, error) {
	var n domain.Negotiation
	var status string
	var from, to sql.NullTime
	if err := row.Scan(
		&n.ID, &n.PropertyID, &n.RenterID, &n.OwnerID,
		&from, &to, &n.Message, &status,
		&n.CreatedAt, &n.UpdatedAt,
	); err != nil {
		return domain.Negotiation{}, err
	}
	if from.Valid {
		n.From = from.Time
	}
	if to.Valid {
		n.To = to.Time
	}
	n.Status = domain.Status(status)
	return n, nil
}

// ---- messaging ----

func (r *Repo) LoadThread(ctx context.Context, negotiationID int64) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, listThreadSQL, negotiationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.NegotiationID, &m.SenderID, &m.RecipientID, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) Send(ctx context.Context, negotiationID, senderID int64, body string) (domain.Message, error) {
	// Recipient is the other party of the negotiation.
	var renterID, ownerID int64
	if err := r.db.QueryRowContext(ctx, negotiationPartiesSQL, negotiationID).Scan(&renterID, &ownerID); err != nil {
		if err == sql.ErrNoRows {
			return domain.Message{}, domain.ErrNotFound
		}
		return domain.Message{}, err
	}
	recipientID := ownerID
	if senderID == ownerID {
		recipientID = renterID
	}

	m := domain.Message{
		NegotiationID: negotiationID,
		SenderID:      senderID,
		RecipientID:   recipientID,
		Body:          body,
		SentAt:        time.Now().UTC(),
	}
	res, err := r.db.ExecContext(ctx, insertMessageSQL,
		m.NegotiationID, m.SenderID, m.RecipientID, m.Body, m.SentAt)
	if err != nil {
		return domain.Message{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Message{}, err
	}
	m.ID = id
	return m, nil
}

// ---- favorites ----

func (r *Repo) Add(ctx context.Context, renterID int64, p domain.PropertyRecord) error {
	_, err := r.db.ExecContext(ctx, addFavoriteSQL, renterID, p.ID)
	return err
}

func (r *Repo) Remove(ctx context.Context, renterID, propertyID int64) error {
	_, err := r.db.ExecContext(ctx, removeFavoriteSQL, renterID, propertyID)
	return err
}

func (r *Repo) Has(ctx context.Context, renterID, propertyID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, hasFavoriteSQL, renterID, propertyID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
