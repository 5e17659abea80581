package database

import (
    "context"
    "database/sql"
)

// schema holds the DDL for every table, executed in dependency order.
// Ownership rules live in the constraints: rooms restrict-delete while
// reservations reference them, and deleting a reservation cascades to
// its history rows.  Statuses are a closed ENUM so arithmetic mistakes
// cannot reach an unknown state.
var schema = []string{
    `CREATE TABLE IF NOT EXISTS users (
        id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        email         VARCHAR(255)    NOT NULL,
        password_hash VARCHAR(255)    NOT NULL,
        ref_no        VARCHAR(64)     NOT NULL,
        full_name     VARCHAR(255)    NOT NULL,
        role          VARCHAR(16)     NOT NULL DEFAULT 'MEMBER',
        is_active     TINYINT(1)      NOT NULL DEFAULT 1,
        created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_users_email (email),
        UNIQUE KEY uq_users_ref_no (ref_no)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS refresh_tokens (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        user_id    BIGINT UNSIGNED NOT NULL,
        token_hash CHAR(64)        NOT NULL,
        expires_at DATETIME        NOT NULL,
        revoked_at DATETIME        NULL,
        created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_refresh_tokens_hash (token_hash),
        KEY idx_refresh_tokens_user (user_id),
        CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS rooms (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        code       VARCHAR(32)     NOT NULL,
        name       VARCHAR(255)    NOT NULL,
        location   VARCHAR(255)    NULL,
        capacity   INT UNSIGNED    NOT NULL,
        facilities TEXT            NULL,
        is_active  TINYINT(1)      NOT NULL DEFAULT 1,
        created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_rooms_code (code)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS reservations (
        id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        room_id         BIGINT UNSIGNED NOT NULL,
        requested_by    BIGINT UNSIGNED NOT NULL,
        booked_for_name VARCHAR(255)    NOT NULL,
        booked_for_ref  VARCHAR(64)     NOT NULL,
        start_time      DATETIME        NOT NULL,
        end_time        DATETIME        NOT NULL,
        status          ENUM('pending','approved','rejected','cancelled','completed') NOT NULL DEFAULT 'pending',
        notes           TEXT            NULL,
        created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        KEY idx_reservations_room_schedule (room_id, status, start_time, end_time),
        KEY idx_reservations_requested_by (requested_by),
        CONSTRAINT fk_reservations_room FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE RESTRICT,
        CONSTRAINT fk_reservations_user FOREIGN KEY (requested_by) REFERENCES users (id) ON DELETE RESTRICT
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS reservation_status_history (
        id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        reservation_id   BIGINT UNSIGNED NOT NULL,
        from_status      ENUM('pending','approved','rejected','cancelled','completed') NOT NULL,
        to_status        ENUM('pending','approved','rejected','cancelled','completed') NOT NULL,
        changed_by_id    BIGINT UNSIGNED NULL,
        changed_by_label VARCHAR(255)    NOT NULL DEFAULT 'system',
        comment          TEXT            NULL,
        changed_at       DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        KEY idx_history_reservation (reservation_id, changed_at),
        CONSTRAINT fk_history_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id) ON DELETE CASCADE,
        CONSTRAINT fk_history_user FOREIGN KEY (changed_by_id) REFERENCES users (id) ON DELETE SET NULL
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing tables.  Statements are idempotent
// so startup is safe against an already-provisioned database.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
    for _, stmt := range schema {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return err
        }
    }
    return nil
}
