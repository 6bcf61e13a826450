// Package swagger holds the OpenAPI document served at /swagger.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/sync/scan": {
			"post": {
				"tags": [
					"sync"
				],
				"summary": "Scan for changes",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "Scan result",
						"schema": {
							"$ref": "#/definitions/voicesync.ScanResult"
						}
					},
					"409": {
						"description": "Run in progress",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"description": "Load the quest catalog and classify every quest as new, changed, removed or unchanged."
			}
		},
		"/sync/apply": {
			"post": {
				"tags": [
					"sync"
				],
				"summary": "Apply changes",
				"produces": [
					"application/json"
				],
				"responses": {
					"202": {
						"description": "Run started",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"400": {
						"description": "No successful scan",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"409": {
						"description": "Run in progress or scan already applied",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"description": "Regenerate audio for the targets of the last scan. Poll /sync/status for progress.",
				"parameters": [
					{
						"description": "Apply options",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/voicesync.applyRequest"
						}
					}
				]
			}
		},
		"/sync/cancel": {
			"post": {
				"tags": [
					"sync"
				],
				"summary": "Cancel apply",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "Whether a run was cancelled",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "boolean"
							}
						}
					}
				}
			}
		},
		"/sync/status": {
			"get": {
				"tags": [
					"sync"
				],
				"summary": "Sync status",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "Status",
						"schema": {
							"$ref": "#/definitions/voicesync.Status"
						}
					}
				}
			}
		},
		"/sync/snapshots": {
			"get": {
				"tags": [
					"sync"
				],
				"summary": "List snapshots",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "Snapshots, newest first",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/snapshot.SetInfo"
							}
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/sync/snapshot/initial": {
			"post": {
				"tags": [
					"sync"
				],
				"summary": "Create initial snapshot",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created snapshot",
						"schema": {
							"$ref": "#/definitions/snapshot.SetInfo"
						}
					},
					"409": {
						"description": "Version exists or run in progress",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"description": "Record the current catalog as baseline without generating audio.",
				"parameters": [
					{
						"description": "Build tag",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/voicesync.initialSnapshotRequest"
						}
					}
				]
			}
		},
		"/progress": {
			"get": {
				"tags": [
					"progress"
				],
				"summary": "Voicing progress",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "Progress",
						"schema": {
							"$ref": "#/definitions/voicesync.ProgressReport"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "Audio source: local or storage",
						"name": "source",
						"in": "query"
					}
				]
			}
		},
		"/progress/zones": {
			"get": {
				"tags": [
					"progress"
				],
				"summary": "Zone progress",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "Zones",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/progress.ZoneProgress"
							}
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "Audio source: local or storage",
						"name": "source",
						"in": "query"
					}
				]
			}
		},
		"/progress/zones/{zone}/quests": {
			"get": {
				"tags": [
					"progress"
				],
				"summary": "Zone quests",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "Quests",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/quests.Quest"
							}
						}
					},
					"400": {
						"description": "Invalid filter",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "Zone name",
						"name": "zone",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "missing, problem, missing_and_problem or all",
						"name": "filter",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Audio source: local or storage",
						"name": "source",
						"in": "query"
					}
				]
			}
		},
		"/audio-index/rebuild": {
			"post": {
				"tags": [
					"audio-index"
				],
				"summary": "Rebuild audio index",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "Entry count",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "integer"
							}
						}
					},
					"409": {
						"description": "Run in progress or output root locked",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/integrity/structure": {
			"get": {
				"tags": [
					"integrity"
				],
				"summary": "Check Structure",
				"description": "Checks the local audio directories and the storage folders of the mirror. Optionally creates missing ones.",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "boolean",
						"description": "Create missing folders",
						"name": "fix",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Structure Report",
						"schema": {
							"$ref": "#/definitions/integrity.StructureReport"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/integrity/audio": {
			"get": {
				"tags": [
					"integrity"
				],
				"summary": "Check Audio Mirror",
				"description": "Compares expected quest audio with the local tree and the storage mirror. Read-only.",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "Reconcile Plan",
						"schema": {
							"$ref": "#/definitions/reconcile.Plan"
						}
					},
					"400": {
						"description": "Storage not configured",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/integrity/audio/sync": {
			"post": {
				"tags": [
					"integrity"
				],
				"summary": "Sync Audio Mirror",
				"description": "Uploads local audio missing from storage and purges audio of quests no longer in the catalog. Nothing changes unless confirm=true.",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "boolean",
						"description": "Upload local files missing from storage",
						"name": "upload",
						"in": "query"
					},
					{
						"type": "boolean",
						"description": "Delete audio of quests not in the catalog",
						"name": "purge",
						"in": "query"
					},
					{
						"type": "boolean",
						"description": "Execute the plan",
						"name": "confirm",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Sync Report",
						"schema": {
							"$ref": "#/definitions/integrity.SyncReport"
						}
					},
					"400": {
						"description": "Storage not configured",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"409": {
						"description": "Output root locked",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		}
	},
	"definitions": {
		"diff.Entry": {
			"type": "object",
			"properties": {
				"quest_id": {
					"type": "integer"
				},
				"type": {
					"type": "string"
				},
				"zone": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"fingerprint": {
					"type": "string"
				},
				"previous_fingerprint": {
					"type": "string"
				}
			}
		},
		"diff.Result": {
			"type": "object",
			"properties": {
				"entries": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/diff.Entry"
					}
				},
				"new_count": {
					"type": "integer"
				},
				"changed_count": {
					"type": "integer"
				},
				"removed_count": {
					"type": "integer"
				},
				"unchanged_count": {
					"type": "integer"
				},
				"to_voice_count": {
					"type": "integer"
				},
				"baseline_version": {
					"type": "string"
				},
				"summary": {
					"type": "string"
				}
			}
		},
		"progress.TotalStats": {
			"type": "object",
			"properties": {
				"total": {
					"type": "integer"
				},
				"voiced": {
					"type": "integer"
				},
				"missing": {
					"type": "integer"
				},
				"problem": {
					"type": "integer"
				},
				"main_total": {
					"type": "integer"
				},
				"main_voiced": {
					"type": "integer"
				},
				"percent": {
					"type": "number"
				},
				"zone_count": {
					"type": "integer"
				}
			}
		},
		"progress.ZoneProgress": {
			"type": "object",
			"properties": {
				"zone": {
					"type": "string"
				},
				"total": {
					"type": "integer"
				},
				"voiced": {
					"type": "integer"
				},
				"missing": {
					"type": "integer"
				},
				"problem": {
					"type": "integer"
				},
				"main_total": {
					"type": "integer"
				},
				"main_voiced": {
					"type": "integer"
				},
				"percent": {
					"type": "number"
				}
			}
		},
		"quests.Quest": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"objectives": {
					"type": "string"
				},
				"completion": {
					"type": "string"
				},
				"reward_text": {
					"type": "string"
				},
				"zone": {
					"type": "string"
				},
				"category": {
					"type": "string"
				},
				"incomplete_translation": {
					"type": "boolean"
				}
			}
		},
		"snapshot.SetInfo": {
			"type": "object",
			"properties": {
				"data_version": {
					"type": "string"
				},
				"quest_count": {
					"type": "integer"
				},
				"created_at": {
					"type": "string"
				},
				"kind": {
					"type": "string"
				},
				"active": {
					"type": "boolean"
				}
			}
		},
		"voicesync.Progress": {
			"type": "object",
			"properties": {
				"phase": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"percentage": {
					"type": "number"
				}
			}
		},
		"voicesync.QuestFailure": {
			"type": "object",
			"properties": {
				"quest_id": {
					"type": "integer"
				},
				"error": {
					"type": "string"
				}
			}
		},
		"voicesync.ScanResult": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"diff": {
					"$ref": "#/definitions/diff.Result"
				},
				"duration": {
					"type": "integer"
				},
				"error_message": {
					"type": "string"
				},
				"scanned_at": {
					"type": "string"
				},
				"quest_count": {
					"type": "integer"
				}
			}
		},
		"voicesync.ApplyResult": {
			"type": "object",
			"properties": {
				"run_id": {
					"type": "string"
				},
				"state": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				},
				"target_count": {
					"type": "integer"
				},
				"failed_quests": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/voicesync.QuestFailure"
					}
				},
				"succeeded_quests": {
					"type": "array",
					"items": {
						"type": "integer"
					}
				},
				"snapshot_saved": {
					"type": "boolean"
				},
				"saved_data_version": {
					"type": "string"
				},
				"addon_exported": {
					"type": "boolean"
				},
				"export_error": {
					"type": "string"
				},
				"duration": {
					"type": "integer"
				},
				"summary": {
					"type": "string"
				},
				"error_message": {
					"type": "string"
				}
			}
		},
		"voicesync.Status": {
			"type": "object",
			"properties": {
				"state": {
					"type": "string"
				},
				"running": {
					"type": "boolean"
				},
				"run_id": {
					"type": "string"
				},
				"progress": {
					"$ref": "#/definitions/voicesync.Progress"
				},
				"last_scan": {
					"$ref": "#/definitions/voicesync.ScanResult"
				},
				"last_apply": {
					"$ref": "#/definitions/voicesync.ApplyResult"
				}
			}
		},
		"voicesync.ProgressReport": {
			"type": "object",
			"properties": {
				"source": {
					"type": "string"
				},
				"totals": {
					"$ref": "#/definitions/progress.TotalStats"
				},
				"zones": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/progress.ZoneProgress"
					}
				}
			}
		},
		"voicesync.applyRequest": {
			"type": "object",
			"properties": {
				"only_new_and_changed": {
					"type": "boolean"
				},
				"auto_export_addon": {
					"type": "boolean"
				},
				"quest_ids": {
					"type": "array",
					"items": {
						"type": "integer"
					}
				},
				"data_version": {
					"type": "string"
				}
			}
		},
		"voicesync.initialSnapshotRequest": {
			"type": "object",
			"properties": {
				"build_tag": {
					"type": "string"
				}
			}
		}
,
		"integrity.StructureReport": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"missing_storage": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"missing_local": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"integrity.SyncReport": {
			"type": "object",
			"properties": {
				"plan": {
					"$ref": "#/definitions/reconcile.Plan"
				},
				"executed": {
					"type": "integer"
				},
				"dry_run": {
					"type": "boolean"
				}
			}
		},
		"reconcile.Result": {
			"type": "object",
			"properties": {
				"key": {
					"type": "string"
				},
				"catalog_present": {
					"type": "boolean"
				},
				"local_present": {
					"type": "boolean"
				},
				"storage_present": {
					"type": "boolean"
				}
			}
		},
		"reconcile.Action": {
			"type": "object",
			"properties": {
				"type": {
					"type": "string"
				},
				"key": {
					"type": "string"
				},
				"reason": {
					"type": "string"
				}
			}
		},
		"reconcile.PlanSummary": {
			"type": "object",
			"properties": {
				"total_items": {
					"type": "integer"
				},
				"missing_local": {
					"type": "integer"
				},
				"missing_storage": {
					"type": "integer"
				},
				"orphaned": {
					"type": "integer"
				},
				"upload_actions": {
					"type": "integer"
				},
				"purge_actions": {
					"type": "integer"
				}
			}
		},
		"reconcile.Plan": {
			"type": "object",
			"properties": {
				"results": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/reconcile.Result"
					}
				},
				"actions": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/reconcile.Action"
					}
				},
				"summary": {
					"$ref": "#/definitions/reconcile.PlanSummary"
				}
			}
		}
	},
	"securityDefinitions": {
		"ApiKeyAuth": {
			"type": "apiKey",
			"name": "X-API-Key",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "localhost:8080",
	BasePath:		 "/",
	Schemes:		  []string{},
	Title:			"Quest Voice API",
	Description:	  "API for quest voice-over synchronization and progress reporting.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
