package database

var schema = []string{`
CREATE TABLE IF NOT EXISTS users (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id VARCHAR(128) NOT NULL UNIQUE,
    name VARCHAR(255) NOT NULL,
    gender VARCHAR(16) NOT NULL,
    birth_date DATE NOT NULL,
    knows_birth_time TINYINT(1) NOT NULL DEFAULT 0,
    birth_time VARCHAR(16) NOT NULL,
    birth_place VARCHAR(255) NOT NULL,
    interested_in VARCHAR(16) NOT NULL,
    sun_sign VARCHAR(32) NOT NULL DEFAULT '',
    moon_sign VARCHAR(32) NOT NULL DEFAULT '',
    rising_sign VARCHAR(32) NOT NULL DEFAULT '',
    credits INT NOT NULL DEFAULT 0,
    is_active TINYINT(1) NOT NULL DEFAULT 1,
    created_at DATETIME(3) NOT NULL,
    updated_at DATETIME(3) NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS images (
    id CHAR(36) PRIMARY KEY,
    user_id VARCHAR(128) NOT NULL,
    image_url TEXT NOT NULL,
    image_name VARCHAR(255) NOT NULL,
    image_type VARCHAR(32) NOT NULL,
    prompt TEXT,
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    ai_model VARCHAR(64),
    is_active TINYINT(1) NOT NULL DEFAULT 1,
    created_at DATETIME(3) NOT NULL,
    updated_at DATETIME(3) NOT NULL,
    KEY idx_images_user_created (user_id, created_at)
)`,
}
