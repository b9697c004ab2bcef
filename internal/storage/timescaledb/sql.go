package timescaledb

const createTableSQL = `CREATE TABLE IF NOT EXISTS readings (
	time timestamptz NOT NULL,
	sensorname text,
	sessionid text,
	elapsedtime float8,
	distance float8,
	distanceraw float8,
	voltage float8,
	voltagestd float8,
	filtercovariance float8,
	temperature float8
);`

const createHypertableSQL = `SELECT create_hypertable('readings', 'time', if_not_exists => TRUE);`
